package fuzzy

import "errors"

var (
	// ErrInvalidTriangle indicates parameters that are not finite or not ordered A <= B <= C.
	ErrInvalidTriangle = errors.New("fuzzy: invalid triangle (need finite A <= B <= C)")

	// ErrDuplicateTerm indicates a term name already present in a variable.
	ErrDuplicateTerm = errors.New("fuzzy: duplicate term")

	// ErrUnknownTerm indicates a rule or representative that names a term the variable lacks.
	ErrUnknownTerm = errors.New("fuzzy: unknown term")

	// ErrEmptyVariable indicates a variable without terms.
	ErrEmptyVariable = errors.New("fuzzy: variable has no terms")

	// ErrInvalidDomain indicates a variable domain with Max <= Min.
	ErrInvalidDomain = errors.New("fuzzy: invalid domain")

	// ErrUnknownStrategy indicates a defuzzification strategy name that is not registered.
	ErrUnknownStrategy = errors.New("fuzzy: unknown defuzzification strategy")
)
