package control

import "errors"

var (
	// ErrInvalidThresholds indicates an activation level below the deactivation level.
	ErrInvalidThresholds = errors.New("control: activation level must not be below deactivation level")

	// ErrUnknownPolicy indicates a pump policy other than hysteresis or always.
	ErrUnknownPolicy = errors.New("control: unknown pump policy")

	// ErrMissingEngine indicates options without a fuzzy engine.
	ErrMissingEngine = errors.New("control: fuzzy engine is required")
)
