package schedule

import "errors"

var ErrInvalidRetention = errors.New("retention days must be at least 1")
