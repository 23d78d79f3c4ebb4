package notification

import "errors"

var (
	ErrUnknownTemplate   = errors.New("unknown notification template")
	ErrNoRecipient       = errors.New("notification has no recipient")
	ErrQueueFull         = errors.New("notification queue full")
	ErrDispatcherStopped = errors.New("notification dispatcher stopped")
)
