package calculator

import "errors"

var (
	ErrEmptySeries       = errors.New("no return data provided")
	ErrZeroVariance      = errors.New("return series has zero variance")
	ErrInvalidPercentile = errors.New("percentile must be within [0, 100]")
	ErrInvalidConfidence = errors.New("confidence level must be within (0, 1)")
)
