// Package errs defines the error kinds surfaced by blueprint loading and
// generation. Everything else in the project wraps or returns these so the
// CLI can report a YAML typo, a bad blueprint, a generation failure and a
// database failure distinctly.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError means a blueprint declaration cannot be accepted: unknown
// keys, missing tables, bad generator params, and so on. File is attached by
// the loader when the declaration came from a file.
type ValidationError struct {
	File string
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("File '%s': %s", e.File, e.Msg)
	}
	return e.Msg
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ParseError means a blueprint file is not valid YAML.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error parsing '%s': %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// GenerationError means a value could not be produced at generation time:
// an unresolved variable, an exhausted unique generator, a malformed
// generator input that only shows up once expressions are evaluated.
type GenerationError struct {
	Msg string
}

func (e *GenerationError) Error() string { return e.Msg }

// Generationf builds a GenerationError with a formatted message.
func Generationf(format string, args ...any) *GenerationError {
	return &GenerationError{Msg: fmt.Sprintf(format, args...)}
}

// BackendError wraps a database failure.
type BackendError struct {
	Msg string
	Err error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *BackendError) Unwrap() error { return e.Err }

// Backendf wraps err with a formatted message. A nil err yields a bare
// BackendError carrying only the message.
func Backendf(err error, format string, args ...any) *BackendError {
	return &BackendError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsGeneration reports whether err is (or wraps) a GenerationError.
func IsGeneration(err error) bool {
	var g *GenerationError
	return errors.As(err, &g)
}
