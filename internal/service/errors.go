package service

import "errors"

// ErrInvalidInput marks caller mistakes (missing telegram_id, non-positive
// points). The HTTP layer maps it to 400; repository.ErrUserNotFound maps to
// 404; everything else is a generic 500 with detail only in the logs.
var ErrInvalidInput = errors.New("invalid input")
