package file

import "errors"

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrForbidden      = errors.New("file belongs to another user")
	ErrEmptyFile      = errors.New("file is empty")
	ErrFileTooLarge   = errors.New("file too large")
	ErrQuotaExceeded  = errors.New("storage quota exceeded")
	ErrInvalidOptions = errors.New("invalid upload options")
	ErrTokenCollision = errors.New("access token collision")
	ErrInvalidShare   = errors.New("invalid share request")
	ErrAlreadyDeleted = errors.New("file already deleted")
)
