package services

import "errors"

// Error taxonomy shared by the REST handlers and the websocket dispatcher.
// Everything not wrapping one of these is treated as internal.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
