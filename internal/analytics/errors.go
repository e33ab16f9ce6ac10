package analytics

import "errors"

var (
	// ErrInvalidHorizon is returned for a forecast horizon outside 1..5
	ErrInvalidHorizon = errors.New("forecast horizon must be between 1 and 5")
	// ErrTooFewObservations is returned when a fit needs at least two points
	ErrTooFewObservations = errors.New("at least two observations are required")
	// ErrTooManyEntities is returned when more than five companies are compared
	ErrTooManyEntities = errors.New("at most 5 companies can be compared")
	// ErrNoEntities is returned when a comparison names no company
	ErrNoEntities = errors.New("no companies selected for comparison")
	// ErrUnknownDimension is returned for a dimension outside the dataset schema
	ErrUnknownDimension = errors.New("unknown dimension")
)

const (
	MinHorizon  = 1
	MaxHorizon  = 5
	MaxCompared = 5
)
