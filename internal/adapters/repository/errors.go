package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrUnavailable   = errors.New("persistence unavailable")
	ErrUnknownDriver = errors.New("unknown storage driver")
)
