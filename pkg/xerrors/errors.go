package xerrors

import "errors"

// Generic
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
)

// Notifications
var (
	ErrUserIDRequired    = errors.New("user ID required")
	ErrTitleRequired     = errors.New("title required")
	ErrMessageRequired   = errors.New("message required")
	ErrEmptyRecipientSet = errors.New("recipient set must not be empty")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidChannel    = errors.New("invalid channel")
	ErrInvalidQuietHours = errors.New("invalid quiet hours window")
)

// Strategies
var (
	ErrNoSystemStrategy = errors.New("SYSTEM strategy must be registered")
	ErrDuplicateType    = errors.New("strategy already registered for type")
)

// Push tokens
var (
	ErrTokenRequired = errors.New("push token required")
	ErrNoPushToken   = errors.New("no push token registered for user")
)
