package types

import "errors"

// Domain errors for type validation
var (
	ErrInvalidLineRange = errors.New("start line must be positive and <= end line")
	ErrMissingFilePath  = errors.New("file path is required")
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrInvalidTopK      = errors.New("search k must be >= 1")
)
