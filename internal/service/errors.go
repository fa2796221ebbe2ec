package service

import "errors"

// Business errors surfaced to handlers and the hub. Handlers match with
// errors.Is; anything unrecognized is treated as an internal error.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrFileNotFound         = errors.New("file not found")
	ErrUnauthorized         = errors.New("not authorized for this room")
	ErrValidation           = errors.New("invalid payload")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInvalidFileName      = errors.New("invalid file name")
	ErrExecutionDisabled    = errors.New("code execution is disabled for this room")
	ErrUnsupportedLanguage  = errors.New("unsupported language")
	ErrRateLimited          = errors.New("too many execution requests")
	ErrInternalServer       = errors.New("internal server error")
)
