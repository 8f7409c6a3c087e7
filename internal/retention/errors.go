package retention

import (
	"errors"
	"fmt"
)

// RetentionError represents errors that occur during a retention run
type RetentionError struct {
	Type    RetentionErrorType     `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *RetentionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause error
func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// RetentionErrorType represents different types of retention errors
type RetentionErrorType string

// Listing and deletion failures are recovered locally; configuration and
// validation errors abort the run before any remote call.
const (
	ErrorTypeConfiguration RetentionErrorType = "CONFIGURATION_ERROR"
	ErrorTypeListing       RetentionErrorType = "LISTING_FAILURE"
	ErrorTypeDeletion      RetentionErrorType = "DELETION_FAILURE"
	ErrorTypeValidation    RetentionErrorType = "VALIDATION_ERROR"
)

// NewRetentionError creates a new RetentionError
func NewRetentionError(errorType RetentionErrorType, message string, cause error) *RetentionError {
	return &RetentionError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *RetentionError) WithContext(key string, value interface{}) *RetentionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Common error constructors
func NewConfigurationError(message string, cause error) *RetentionError {
	return NewRetentionError(ErrorTypeConfiguration, message, cause)
}

func NewListingFailure(message string, cause error) *RetentionError {
	return NewRetentionError(ErrorTypeListing, message, cause)
}

func NewDeletionFailure(message string, cause error) *RetentionError {
	return NewRetentionError(ErrorTypeDeletion, message, cause)
}

func NewValidationError(message string, cause error) *RetentionError {
	return NewRetentionError(ErrorTypeValidation, message, cause)
}

// ValidationError represents validation-specific errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d validation errors: %s (and %d more)", len(e), e[0].Error(), len(e)-1)
}

// Add adds a validation error to the collection
func (e *ValidationErrors) Add(field, message string, value interface{}) {
	*e = append(*e, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

func hasType(err error, errorType RetentionErrorType) bool {
	var retentionErr *RetentionError
	if errors.As(err, &retentionErr) {
		return retentionErr.Type == errorType
	}
	return false
}

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	return hasType(err, ErrorTypeConfiguration)
}

// IsListingFailure reports whether err is a failed remote listing
func IsListingFailure(err error) bool {
	return hasType(err, ErrorTypeListing)
}

// IsDeletionFailure reports whether err is a failed remote delete
func IsDeletionFailure(err error) bool {
	return hasType(err, ErrorTypeDeletion)
}

// IsFatal reports whether err must abort the run with a non-zero exit.
// Listing and deletion failures are recovered by the next scheduled run.
func IsFatal(err error) bool {
	var retentionErr *RetentionError
	if errors.As(err, &retentionErr) {
		switch retentionErr.Type {
		case ErrorTypeListing, ErrorTypeDeletion:
			return false
		default:
			return true
		}
	}
	return err != nil
}
