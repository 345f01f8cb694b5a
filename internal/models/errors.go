package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrOracleFailure = errors.New("oracle failure")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrUserExists    = errors.New("username already registered")

	// ErrCommentBlocked is returned when an edit does not pass moderation.
	ErrCommentBlocked = fmt.Errorf("%w: comment blocked due to inappropriate language", ErrForbidden)
)
