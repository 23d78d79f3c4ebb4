package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrWeakPassword       = errors.New("password too weak")
)
