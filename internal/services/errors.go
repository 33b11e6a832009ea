package services

import "errors"

// Dashboard service errors
var (
	// Dataset errors
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrNoObservations   = errors.New("no observations match the selection")

	// Selection errors
	ErrEmptySelection = errors.New("empty region selection")
	ErrUnknownRegion  = errors.New("unknown region")

	// WebSocket errors
	ErrWebSocketUpgrade = errors.New("websocket upgrade failed")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
