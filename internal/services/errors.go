package services

import (
	"errors"

	"dtindex/internal/analytics"
	apperrors "dtindex/internal/errors"
)

// Dashboard service errors
var (
	// Entity errors
	ErrEntityRequired = errors.New("entity id is required")
	ErrEntityNotFound = errors.New("entity not found")

	// Analysis errors
	ErrInsufficientData = errors.New("not enough observations for this analysis")
	ErrUnknownDimension = analytics.ErrUnknownDimension
	ErrInvalidHorizon   = analytics.ErrInvalidHorizon
	ErrTooManyEntities  = analytics.ErrTooManyEntities
	ErrNoEntities       = analytics.ErrNoEntities

	// ErrEmptyResult matches every *errors.EmptyResultWarning
	ErrEmptyResult = apperrors.ErrEmptyResult
)
