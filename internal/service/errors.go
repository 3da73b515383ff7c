package service

import "errors"

// Typed failure outcomes. The services never recover or retry these; every
// failure is returned to the caller, which owns the transport mapping.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is not activated")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyActive      = errors.New("email already activated")

	ErrNotFound          = errors.New("not found")
	ErrNameTaken         = errors.New("subject name already taken")
	ErrSearchUnavailable = errors.New("search is not available")
)
