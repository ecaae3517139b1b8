package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrInvalidConfig indicates a value failed validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrWatcherClosed indicates the watcher stopped before it could report.
	ErrWatcherClosed = errors.New("config: watcher closed")
)

// ParseError represents an error while parsing a configuration source.
type ParseError struct {
	// Path is the file path or env variable that failed to parse.
	Path string

	// Message describes the parse error.
	Message string

	// Err is the underlying error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parse %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
