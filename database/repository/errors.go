package repository

import "errors"

// Store-level failures. Implementations wrap these with fmt.Errorf("...: %w", err).
var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("record changed concurrently")
	ErrDuplicate = errors.New("record already exists")
)
