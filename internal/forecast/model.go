// Package forecast fits an additive piecewise-linear trend with Fourier
// seasonalities to a daily price series and extrapolates it forward.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"RiskForecast/internal/model"
)

var (
	ErrInsufficientData = errors.New("forecast: need at least 2 observations")
	ErrNotFitted        = errors.New("forecast: model is not fitted")
	ErrSingular         = errors.New("forecast: design system is singular")
	ErrInvalidHorizon   = errors.New("forecast: horizon must be positive")
)

const (
	trendPriorScale = 5.0
	fitIterations   = 3
	minNoiseVar     = 1e-8
)

// Model is a fitted or unfitted forecasting model. It is not safe for
// concurrent Fit calls.
type Model struct {
	opts Options

	seasons      []seasonality
	changepoints []float64

	start  time.Time
	span   float64 // seconds between first and last observation
	yScale float64

	history []time.Time
	symbol  string
	beta    []float64
	sigma2  float64
	// meanAbsDelta is the average magnitude of fitted rate changes, used to
	// widen the interval past the last observation.
	meanAbsDelta float64
	fitted       bool
}

// New returns an unfitted model.
func New(opts Options) *Model {
	return &Model{opts: opts, seasons: opts.seasonalities()}
}

func (m *Model) scaleTime(d time.Time) float64 {
	return d.Sub(m.start).Seconds() / m.span
}

func (m *Model) nFeatures() int {
	p := 2 + len(m.changepoints)
	for _, s := range m.seasons {
		p += 2 * s.order
	}
	return p
}

// priorScales returns the Gaussian prior std for each coefficient, in
// design-matrix column order.
func (m *Model) priorScales() []float64 {
	scales := make([]float64, 0, m.nFeatures())
	scales = append(scales, trendPriorScale, trendPriorScale)
	for range m.changepoints {
		scales = append(scales, m.opts.ChangepointPriorScale)
	}
	for _, s := range m.seasons {
		for i := 0; i < 2*s.order; i++ {
			scales = append(scales, m.opts.SeasonalityPriorScale)
		}
	}
	return scales
}

// Fit estimates the model on series. The coefficients are the MAP estimate
// under independent Gaussian priors, refined over a few rounds so that the
// prior strength tracks the residual noise level. Seasonalities longer than
// half the history are reduced or left out.
func (m *Model) Fit(series *model.PriceSeries) error {
	if series == nil || series.Len() < 2 {
		return ErrInsufficientData
	}
	dates := series.Dates()
	y := series.Prices()
	n := len(y)

	m.start = dates[0]
	m.span = dates[n-1].Sub(dates[0]).Seconds()
	if m.span <= 0 {
		return ErrInsufficientData
	}
	m.yScale = 0
	for _, v := range y {
		m.yScale = math.Max(m.yScale, math.Abs(v))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	ts := make([]float64, n)
	ys := make([]float64, n)
	for i := range dates {
		ts[i] = m.scaleTime(dates[i])
		ys[i] = y[i] / m.yScale
	}
	m.changepoints = placeChangepoints(ts, m.opts.NChangepoints, m.opts.ChangepointRange)
	m.seasons = fitSeasons(m.opts.seasonalities(), m.span/86400)

	p := m.nFeatures()
	X := mat.NewDense(n, p, nil)
	buf := make([]float64, 0, p)
	for i, d := range dates {
		buf = m.row(buf[:0], d)
		X.SetRow(i, buf)
	}
	yv := mat.NewVecDense(n, ys)

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())
	var xty mat.VecDense
	xty.MulVec(X.T(), yv)

	scales := m.priorScales()
	sigma2 := math.Max(stat.PopVariance(ys, nil), minNoiseVar)

	var beta mat.VecDense
	for iter := 0; iter < fitIterations; iter++ {
		a := mat.NewSymDense(p, nil)
		a.CopySym(&xtx)
		for j, s := range scales {
			a.SetSym(j, j, a.At(j, j)+sigma2/(s*s))
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(a); !ok {
			return ErrSingular
		}
		if err := chol.SolveVecTo(&beta, &xty); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return fmt.Errorf("forecast: solve: %w", err)
			}
			// Ill-conditioned but solved; the priors keep the estimate bounded.
		}

		var fitted mat.VecDense
		fitted.MulVec(X, &beta)
		var ss float64
		for i := 0; i < n; i++ {
			r := ys[i] - fitted.AtVec(i)
			ss += r * r
		}
		sigma2 = math.Max(ss/float64(n), minNoiseVar)
	}

	m.beta = make([]float64, p)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
	}
	m.sigma2 = sigma2
	m.meanAbsDelta = 0
	if k := len(m.changepoints); k > 0 {
		for _, d := range m.beta[2 : 2+k] {
			m.meanAbsDelta += math.Abs(d)
		}
		m.meanAbsDelta /= float64(k)
	}
	m.history = dates
	m.symbol = series.Symbol
	m.fitted = true
	return nil
}

// MakeFutureDates returns the history dates followed by horizon daily dates
// after the last observation.
func (m *Model) MakeFutureDates(horizon int) ([]time.Time, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}
	out := make([]time.Time, 0, len(m.history)+horizon)
	out = append(out, m.history...)
	last := m.history[len(m.history)-1]
	for i := 1; i <= horizon; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out, nil
}

// Predict evaluates the fitted model at dates. Bounds combine the residual
// noise with trend uncertainty that grows past the last observation.
func (m *Model) Predict(dates []time.Time) (*model.Forecast, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	z := distuv.UnitNormal.Quantile(0.5 + m.opts.IntervalWidth/2)
	last := m.history[len(m.history)-1]
	tLast := m.scaleTime(last)
	rate := float64(len(m.changepoints))

	fc := &model.Forecast{Symbol: m.symbol, Points: make([]model.ForecastPoint, len(dates))}
	buf := make([]float64, 0, len(m.beta))
	for i, d := range dates {
		buf = m.row(buf[:0], d)
		var yhat float64
		for j, x := range buf {
			yhat += x * m.beta[j]
		}

		variance := m.sigma2
		if h := m.scaleTime(d) - tLast; h > 0 {
			// Rate changes arrive as a Poisson process with Laplace sizes;
			// their effect on the trend at distance h has variance 2·S·b²·h³/3.
			variance += 2 * rate * m.meanAbsDelta * m.meanAbsDelta * h * h * h / 3
		}
		half := z * math.Sqrt(variance)

		fc.Points[i] = model.ForecastPoint{
			Date:      d,
			Yhat:      yhat * m.yScale,
			YhatLower: (yhat - half) * m.yScale,
			YhatUpper: (yhat + half) * m.yScale,
		}
		if d.After(last) {
			fc.Horizon++
		}
	}
	return fc, nil
}

// Run fits a model with opts on series and predicts horizon days ahead.
func Run(series *model.PriceSeries, opts Options, horizon int) (*model.Forecast, error) {
	m := New(opts)
	if err := m.Fit(series); err != nil {
		return nil, err
	}
	future, err := m.MakeFutureDates(horizon)
	if err != nil {
		return nil, err
	}
	return m.Predict(future)
}
