package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed       = errors.New("client is closed")
	ErrNotConnected       = errors.New("client is not connected")
	ErrAlreadyConnected   = errors.New("client is already connected")
	ErrInvalidConfig      = errors.New("invalid client configuration")
	ErrUnexpectedGreeting = errors.New("server did not send a scene snapshot")
)
