package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrFederatedOnly      = errors.New("auth: account uses Google sign-in")
	ErrAlreadyExists      = errors.New("auth: already exists")
	ErrMissingFields      = errors.New("auth: missing required fields")
	ErrNotAuthenticated   = errors.New("auth: not authenticated")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrNotFound           = errors.New("auth: not found")
	ErrRateLimited        = errors.New("auth: reset requested too recently")
	ErrMailNotConfigured  = errors.New("auth: mail service is not configured")
	ErrMailUnavailable    = errors.New("auth: mail could not be delivered")
	ErrInvalidOTP         = errors.New("auth: invalid or expired otp")
	ErrNotConfigured      = errors.New("auth: google sign-in is not configured")
	ErrMissingToken       = errors.New("auth: missing google id token")
	ErrInvalidRole        = errors.New("auth: invalid role")
	ErrUnauthorized       = errors.New("auth: unauthorized")
)
