package models

import "errors"

var (
	// ErrValidation marks a locally detectable input problem. Handlers map it
	// to a user-facing message before any external call is made.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)
