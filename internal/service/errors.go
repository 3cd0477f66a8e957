package service

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid or expired")
	ErrInactiveUser       = errors.New("inactive user")
	ErrForbidden          = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrLimitConflict      = errors.New("month limit already used")
)
