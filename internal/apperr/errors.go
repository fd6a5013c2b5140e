// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound signals that the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyUpdate signals an update payload carrying no recognized field.
	ErrEmptyUpdate = errors.New("empty update")
)
