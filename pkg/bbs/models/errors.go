package models

import "errors"

// Common errors for BBS store operations.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidUsername    = errors.New("invalid username")

	// Post errors
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyPost    = errors.New("post body is empty")

	// Ban errors
	ErrInvalidBan = errors.New("ban requires a username or an IP address")
)
