package domain

import "errors"

// Credential errors
var (
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCodeMismatch       = errors.New("invalid activation code")
)

// Token errors
var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrMissingRefreshToken = errors.New("no refresh token provided")
)

// Access errors
var (
	ErrUnauthenticated = errors.New("please login to access this resource")
	ErrUserNotFound    = errors.New("user not found")
	ErrForbidden       = errors.New("role is not allowed to access this resource")
)

// Infrastructure errors
var (
	ErrUpstreamUnavailable = errors.New("upstream store unavailable, retry shortly")
	ErrMailDelivery        = errors.New("failed to deliver email")
)
