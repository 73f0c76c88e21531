package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInvalidFeature is returned when an unknown feature is requested,
	// or a non-numeric feature is used where a continuous one is required.
	ErrInvalidFeature = errors.New("invalid feature")

	// ErrConfiguration is returned for contradictory or incomplete options:
	// a custom scorer without a scoring strategy, probability output
	// requested from a model without a probability capability, or
	// mismatched grids handed to the H-statistic.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMissingPrecursor is returned when a method requires a previously
	// computed result (e.g. ALE curves before interaction strength) and
	// none was cached or supplied.
	ErrMissingPrecursor = errors.New("missing precursor result")

	// ErrInsufficientData is returned when a performance bucket or bin
	// holds fewer examples than requested.
	ErrInsufficientData = errors.New("insufficient data")
)

// Error constructors with context

func NewInvalidFeatureError(feature FeatureKey, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidFeature, feature, reason)
}

func NewConfigurationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, reason)
}

func NewMissingPrecursorError(method Method, precursor Method) error {
	return fmt.Errorf("%w: %s requires a %s result; compute one or pass it explicitly", ErrMissingPrecursor, method, precursor)
}

func NewInsufficientDataError(bucket string, have, want int) error {
	return fmt.Errorf("%w: bucket %q holds %d examples, %d requested", ErrInsufficientData, bucket, have, want)
}

// Error checking helpers

func IsInvalidFeature(err error) bool { return errors.Is(err, ErrInvalidFeature) }

func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

func IsMissingPrecursor(err error) bool { return errors.Is(err, ErrMissingPrecursor) }

func IsInsufficientData(err error) bool { return errors.Is(err, ErrInsufficientData) }
