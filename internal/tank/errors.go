package tank

import "errors"

var (
	// ErrInvalidParams indicates a tank parameter outside its valid range.
	ErrInvalidParams = errors.New("tank: invalid parameters")

	// ErrUnknownDirection indicates a flow direction other than drain or fill.
	ErrUnknownDirection = errors.New("tank: unknown flow direction")
)
