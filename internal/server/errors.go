package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed   = errors.New("server is closed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidMessage = errors.New("invalid message")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrPathNotAllowed = errors.New("save path not allowed")
)
