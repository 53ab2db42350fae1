package forecast

// Options configures the additive trend + seasonality model.
type Options struct {
	YearlySeasonality bool
	WeeklySeasonality bool
	DailySeasonality  bool

	// ChangepointPriorScale is the prior std of each trend rate change.
	// Larger values let the trend bend more.
	ChangepointPriorScale float64
	NChangepoints         int
	// ChangepointRange is the leading fraction of history in which
	// changepoints are placed.
	ChangepointRange float64

	SeasonalityPriorScale float64
	IntervalWidth         float64

	YearlyOrder int
	WeeklyOrder int
	DailyOrder  int
}

// DefaultOptions returns yearly and weekly seasonality without daily
// seasonality, and a changepoint prior scale of 0.05.
func DefaultOptions() Options {
	return Options{
		YearlySeasonality:     true,
		WeeklySeasonality:     true,
		DailySeasonality:      false,
		ChangepointPriorScale: 0.05,
		NChangepoints:         25,
		ChangepointRange:      0.8,
		SeasonalityPriorScale: 10,
		IntervalWidth:         0.8,
		YearlyOrder:           10,
		WeeklyOrder:           3,
		DailyOrder:            4,
	}
}
