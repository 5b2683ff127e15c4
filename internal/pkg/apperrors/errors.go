package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Rate limiting
	ErrTooManyRequests = errors.New("too many requests")
)

// User errors
var (
	ErrUserNotFound       = fmt.Errorf("user not found: %w", ErrResourceNotFound)
	ErrEmailAlreadyExists = fmt.Errorf("email already exists: %w", ErrResourceAlreadyExists)
)

// Course errors
var (
	ErrCourseNotFound     = fmt.Errorf("course not found: %w", ErrResourceNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category not found: %w", ErrResourceNotFound)
	ErrLessonNotFound     = fmt.Errorf("lesson not found: %w", ErrResourceNotFound)
	ErrCourseNotEditable  = fmt.Errorf("course can no longer be edited: %w", ErrConflict)
	ErrCourseNotPublished = fmt.Errorf("course is not published: %w", ErrConflict)
)

// Wizard errors
var (
	ErrDraftNotFound       = fmt.Errorf("course draft not found: %w", ErrResourceNotFound)
	ErrWizardStepLocked    = fmt.Errorf("wizard step is not unlocked yet: %w", ErrConflict)
	ErrWizardIncomplete    = fmt.Errorf("wizard has incomplete steps: %w", ErrConflict)
	ErrDraftAlreadyCreated = fmt.Errorf("draft was already submitted: %w", ErrConflict)
)

// Assessment errors
var (
	ErrAssessmentNotFound    = fmt.Errorf("assessment not found: %w", ErrResourceNotFound)
	ErrSubmissionNotFound    = fmt.Errorf("submission not found: %w", ErrResourceNotFound)
	ErrAssessmentNotEditable = fmt.Errorf("assessment can no longer be edited: %w", ErrConflict)
	ErrAssessmentNotOpen     = fmt.Errorf("assessment is not open for submissions: %w", ErrConflict)
	ErrDeadlinePassed        = fmt.Errorf("assessment deadline has passed: %w", ErrConflict)
	ErrMaxAttemptsReached    = fmt.Errorf("maximum number of attempts reached: %w", ErrConflict)
	ErrAlreadyGraded         = fmt.Errorf("submission is already graded: %w", ErrConflict)
)

// Enrollment errors
var (
	ErrEnrollmentNotFound = fmt.Errorf("enrollment not found: %w", ErrResourceNotFound)
	ErrAlreadyEnrolled    = fmt.Errorf("already enrolled in this course: %w", ErrConflict)
	ErrNotEnrolled        = fmt.Errorf("not enrolled in this course: %w", ErrPermissionDenied)
	ErrCourseFull         = fmt.Errorf("course has reached its student limit: %w", ErrConflict)
	ErrApplicationNeeded  = fmt.Errorf("an approved application is required: %w", ErrConflict)
	ErrPaymentRequired    = errors.New("payment required")
)

// Application errors
var (
	ErrApplicationNotFound = fmt.Errorf("application not found: %w", ErrResourceNotFound)
	ErrApplicationExists   = fmt.Errorf("a pending application already exists: %w", ErrConflict)
)

// Payment errors
var (
	ErrPaymentNotFound   = fmt.Errorf("payment not found: %w", ErrResourceNotFound)
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", ErrConflict)
	ErrInvalidSignature  = errors.New("invalid webhook signature")
)

// Notification errors
var (
	ErrNotificationNotFound = fmt.Errorf("notification not found: %w", ErrResourceNotFound)
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// FieldError is a single failed field check
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field error of a payload
type ValidationError struct {
	Fields []FieldError
}

// Add records a failed field check
func (v *ValidationError) Add(field, format string, args ...interface{}) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any field failed
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// Err returns nil when nothing failed so callers can `return v.Err()`
func (v *ValidationError) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidationFailed
func (v *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a ValidationError with a single field
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, "%s", message)
	return v
}
