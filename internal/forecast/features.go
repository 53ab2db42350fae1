package forecast

import (
	"math"
	"time"
)

type seasonality struct {
	name   string
	period float64 // days
	order  int
}

func (o Options) seasonalities() []seasonality {
	var out []seasonality
	if o.YearlySeasonality && o.YearlyOrder > 0 {
		out = append(out, seasonality{"yearly", 365.25, o.YearlyOrder})
	}
	if o.WeeklySeasonality && o.WeeklyOrder > 0 {
		out = append(out, seasonality{"weekly", 7, o.WeeklyOrder})
	}
	if o.DailySeasonality && o.DailyOrder > 0 {
		out = append(out, seasonality{"daily", 1, o.DailyOrder})
	}
	return out
}

// fitSeasons trims each seasonality to what spanDays of history can
// resolve. Below two full periods the Fourier order shrinks in proportion
// to the covered fraction, and a seasonality left with order 0 is dropped.
func fitSeasons(seasons []seasonality, spanDays float64) []seasonality {
	out := make([]seasonality, 0, len(seasons))
	for _, s := range seasons {
		if cover := spanDays / (2 * s.period); cover < 1 {
			s.order = int(math.Floor(float64(s.order) * cover))
		}
		if s.order > 0 {
			out = append(out, s)
		}
	}
	return out
}

// epochDays is t measured in days since the Unix epoch, the time axis the
// Fourier terms are evaluated on.
func epochDays(t time.Time) float64 {
	return float64(t.Unix()) / 86400
}

// fourier appends sin/cos pairs for orders 1..s.order.
func fourier(dst []float64, t time.Time, s seasonality) []float64 {
	x := 2 * math.Pi * epochDays(t) / s.period
	for n := 1; n <= s.order; n++ {
		dst = append(dst, math.Sin(float64(n)*x), math.Cos(float64(n)*x))
	}
	return dst
}

// placeChangepoints returns evenly spaced changepoints over the first
// rng fraction of the scaled history ts.
func placeChangepoints(ts []float64, n int, rng float64) []float64 {
	histSize := int(math.Floor(float64(len(ts)) * rng))
	if n > histSize-1 {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}
	cps := make([]float64, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		cps[i-1] = ts[int(math.Round(float64(i)*step))]
	}
	return cps
}

// row builds one design-matrix row: intercept, slope, changepoint hinges,
// then Fourier terms.
func (m *Model) row(dst []float64, d time.Time) []float64 {
	t := m.scaleTime(d)
	dst = append(dst, 1, t)
	for _, s := range m.changepoints {
		dst = append(dst, math.Max(t-s, 0))
	}
	for _, s := range m.seasons {
		dst = fourier(dst, d, s)
	}
	return dst
}
