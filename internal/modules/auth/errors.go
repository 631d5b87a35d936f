package auth

import "pdfmark/internal/domain"

var (
	ErrInvalidCredentials  = domain.Auth("invalid username or password")
	ErrUsernameTaken       = domain.Conflict("username is already taken")
	ErrAdminSignupDisabled = domain.Validation("registering as admin is not allowed")
	ErrInvalidRefreshToken = domain.Auth("invalid or expired refresh token")
	ErrRefreshTokenReused  = domain.Auth("refresh token was already used")
)
