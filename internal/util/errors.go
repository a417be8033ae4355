package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("a user with this email already exists")
	ErrUsernameTaken      = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("wrong password")
	ErrUnconfirmedEmail   = errors.New("account is not activated, follow the link from the activation email")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrCategoryNotFound   = errors.New("test category not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrTokenNotFound      = errors.New("activation token not found")
	ErrTokenExpired       = errors.New("activation token expired")
	ErrResetTokenInvalid  = errors.New("invalid or expired password reset token")
	ErrMalformedInput     = errors.New("malformed input")
	ErrInvalidCatalog     = errors.New("invalid catalog entry")
)
