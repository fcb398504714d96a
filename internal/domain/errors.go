package domain

import "errors"

// Error taxonomy for user-triggered actions. Every failure surfaced to the
// editor wraps exactly one of these so handlers can classify it with errors.Is.
var (
	ErrRead         = errors.New("read error")
	ErrFetch        = errors.New("fetch error")
	ErrEncoding     = errors.New("encoding error")
	ErrSuggestion   = errors.New("suggestion error")
	ErrEdit         = errors.New("edit error")
	ErrCamera       = errors.New("camera error")
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
