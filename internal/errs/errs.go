// Package errs contains sentinel errors shared by the service, store and http layers.
package errs

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrForbidden          = errors.New("access to the resource is forbidden")

	// token and session errors
	ErrMissingToken     = errors.New("missing token")
	ErrMalformedScheme  = errors.New("token must be a bearer")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrInsufficientRole = errors.New("insufficient privileges")
	ErrRefreshInvalid   = errors.New("invalid or expired refresh token")
	ErrRefreshReuse     = errors.New("refresh token reuse detected")
)
