package errors

import "errors"

var (
	ErrInvalid      = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInternal     = errors.New("internal")
)

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
