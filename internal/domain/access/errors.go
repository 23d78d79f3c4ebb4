package access

import "errors"

var (
	ErrNotFound    = errors.New("access token not found")
	ErrUnavailable = errors.New("file content unavailable")
	ErrForbidden   = errors.New("file belongs to another user")
)
