package calculator

import (
	"math"
	"sort"
)

// DropNaN returns a copy of x without NaN entries. Infinities are kept.
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Percentile returns the p-th percentile (0..100) of x using linear interpolation
// between the two closest ranks: h = (n-1)*p/100, x[floor(h)] + frac(h)*(x[floor(h)+1]-x[floor(h)]).
// NaN entries are ignored.
func Percentile(x []float64, p float64) (float64, error) {
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, ErrInvalidPercentile
	}
	sorted := DropNaN(x)
	if len(sorted) == 0 {
		return 0, ErrEmptySeries
	}
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * p / 100
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// NanMin returns the minimum of x ignoring NaN entries. ok is false when
// every entry is NaN or x is empty.
func NanMin(x []float64) (m float64, ok bool) {
	m = math.Inf(1)
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if !ok || v < m {
			m = v
			ok = true
		}
	}
	if !ok {
		return math.NaN(), false
	}
	return m, true
}

// RunningMax returns the cumulative maximum of x. A NaN entry does not
// move the running maximum and yields NaN at its own position.
func RunningMax(x []float64) []float64 {
	out := make([]float64, len(x))
	peak := math.NaN()
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
			continue
		case math.IsNaN(peak) || v > peak:
			peak = v
		}
		out[i] = peak
	}
	return out
}
