package services

import "errors"

var (
	// ErrEmptyPopulation means a computation needed at least one value
	// (mean, percentile, min/max) and got none, or a mean of zero made the
	// deviation undefined.
	ErrEmptyPopulation = errors.New("insufficient data")

	// ErrOutOfRange means listing values were too large to aggregate, so a
	// mean, total or deviation left the float64 range.
	ErrOutOfRange = errors.New("listing values out of range")

	// ErrRendering wraps failures of the document, PDF or artifact store
	// collaborators. The curated dataset is already complete at that point.
	ErrRendering = errors.New("report rendering failed")
)
