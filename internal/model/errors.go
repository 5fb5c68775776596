package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrUnknownField = errors.New("unknown user field")

	// Whitelist / banlist errors
	ErrNameNotListed = errors.New("name is not on the list")
	ErrInvalidName   = errors.New("invalid name")

	// Permission errors
	ErrForbidden = errors.New("permission denied")

	// Storage errors
	ErrDocumentNotFound = errors.New("document not found")
)
