package points

import "errors"

// Sentinel kinds for points errors.
var (
	ErrInvalidTable = errors.New("invalid points table")
)
