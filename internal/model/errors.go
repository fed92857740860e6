package model

import "errors"

// Every pipeline failure wraps exactly one of these.
var (
	ErrNetwork             = errors.New("network error")
	ErrUpstreamFormat      = errors.New("upstream format error")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrInvalidCode         = errors.New("invalid instrument code")
)
