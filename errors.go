package thinfilm

import (
	"errors"
	"fmt"
)

var (
	ErrParse                 = errors.New("invalid QWOT stack")
	ErrInvalidRange          = errors.New("invalid sweep range")
	ErrInvalidMaterial       = errors.New("real refractive index must be positive")
	ErrDesignAngleInfeasible = errors.New("design angle exceeds the critical angle (total internal reflection)")
	ErrCriticalAngleAtDesign = errors.New("design angle equals the critical angle")
)

// ParseError reports a malformed token of a QWOT stack string.
// Pos is 1-based and counts raw comma-separated tokens, blanks included.
type ParseError struct {
	Pos    int
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Pos == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s at position %d: '%s'", e.Reason, e.Pos, e.Token)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// LayerError ties a resolution failure to the 1-based layer that caused it.
type LayerError struct {
	Layer int
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %d: %v", e.Layer, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }
