package repo

import "errors"

// Store errors. Callers match them with errors.Is; returned errors may wrap them with context.
var (
	// ErrUsernameTaken is returned by Register when the username already exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials is returned by Authenticate for an unknown username and for a wrong
	// password alike, so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrPasswordTooLong is returned by Register for passwords bcrypt cannot hash (over 72 bytes).
	ErrPasswordTooLong = errors.New("password too long")

	// ErrNotFound is returned when a referenced user or message does not exist.
	ErrNotFound = errors.New("not found")
)
