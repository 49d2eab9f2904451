package run

import "errors"

var (
	ErrNotFound         = errors.New("sync run not found")
	ErrInvalidRetention = errors.New("retention days must be at least 1")
)
