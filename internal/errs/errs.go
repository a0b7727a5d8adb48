package errs

import "errors"

var (
	ErrInvalidBracket = errors.New("age group must be one of 10, 20, ..., 80")
	ErrFormat         = errors.New("malformed national identifier")
	ErrStorage        = errors.New("storage failure")

	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrSSNTaken           = errors.New("national identifier already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is deactivated")
	ErrNoUpdates          = errors.New("nothing to update")

	ErrTokenInvalid   = errors.New("token invalid")
	ErrSessionExpired = errors.New("session expired")

	ErrTickInProgress = errors.New("dispatch tick already in progress")
)
