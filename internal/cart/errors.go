package cart

import "errors"

var (
	// ErrInvalidAttribute indicates a line item failed basic validity checks.
	ErrInvalidAttribute = errors.New("invalid cart item attribute")
	// ErrRowNotFound is returned when the cart does not contain the requested row.
	ErrRowNotFound = errors.New("cart row not found")
	// ErrUnknownModel is returned when a model reference names an unregistered type.
	ErrUnknownModel = errors.New("unknown model type")
)

// ErrModelNotFound is returned by catalog lookups when the referenced record does not exist.
var ErrModelNotFound = errors.New("model record not found")
