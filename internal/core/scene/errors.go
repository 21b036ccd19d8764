package scene

import "errors"

// Scene graph errors
var (
	// Lookup errors

	ErrEntityNotFound    = errors.New("entity not found")
	ErrComponentNotFound = errors.New("component not found")
	ErrPropertyNotFound  = errors.New("property not found")

	// Structural errors

	ErrCycle        = errors.New("entity cannot be parented under itself or a descendant")
	ErrTypeMismatch = errors.New("property value type mismatch")
	ErrInvalidValue = errors.New("invalid property value")
	ErrInvalidScene = errors.New("invalid scene data")
)
