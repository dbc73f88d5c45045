// Package errs defines the error taxonomy shared by the parsing
// pipeline: validation errors surfaced to the caller and processing
// errors that degrade a single section without aborting the run.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports rejected input: a bad file path, a
// disallowed extension or a malformed search query. The message is
// generic and safe to surface to the caller.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation creates a ValidationError with a formatted message.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ProcessingError reports an extraction failure scoped to one section
// or page. It is logged with detail internally; the affected entry is
// degraded to an empty or partial record and the run continues.
type ProcessingError struct {
	SectionID string
	Page      int
	Err       error
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	if e.SectionID != "" {
		return fmt.Sprintf("section %s page %d: %v", e.SectionID, e.Page, e.Err)
	}
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessing creates a ProcessingError for the given section and page.
func NewProcessing(sectionID string, page int, err error) *ProcessingError {
	return &ProcessingError{SectionID: sectionID, Page: page, Err: err}
}

// IsProcessing reports whether err is, or wraps, a ProcessingError.
func IsProcessing(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe)
}
