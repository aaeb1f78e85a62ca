package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeProcess    ErrorType = "process"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// Reason is the closed set of failures a server run can report to observers.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonBaseDirectoryNotFound   Reason = "base_directory_not_found"
	ReasonDistributionNotFound    Reason = "distribution_not_found"
	ReasonBinDirectoryNotFound    Reason = "bin_directory_not_found"
	ReasonExecutableNotFound      Reason = "executable_not_found"
	ReasonConfigDirectoryNotFound Reason = "config_directory_not_found"
	ReasonTempDirectoryNotCreated Reason = "temp_directory_not_created"
	ReasonStartFailed             Reason = "start_failed"
	ReasonStoppedUnexpectedly     Reason = "stopped_unexpectedly"
	ReasonTempDirectoryNotDeleted Reason = "temp_directory_not_deleted"
)

var reasonMessages = map[Reason]string{
	ReasonBaseDirectoryNotFound:   "Webber base directory not found.",
	ReasonDistributionNotFound:    "Catalina base directory not found.",
	ReasonBinDirectoryNotFound:    "Catalina bin directory not found.",
	ReasonExecutableNotFound:      "Catalina executable not found.",
	ReasonConfigDirectoryNotFound: "Webber configuration directory not found.",
	ReasonTempDirectoryNotCreated: "Catalina temp directory could not be created.",
	ReasonStartFailed:             "Catalina could not be started.",
	ReasonStoppedUnexpectedly:     "Catalina stopped unexpectedly.",
	ReasonTempDirectoryNotDeleted: "Catalina temp directory not deleted.",
}

// Message returns the human-readable text shown to observers
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// Reasons lists every known reason in declaration order
func Reasons() []Reason {
	return []Reason{
		ReasonBaseDirectoryNotFound,
		ReasonDistributionNotFound,
		ReasonBinDirectoryNotFound,
		ReasonExecutableNotFound,
		ReasonConfigDirectoryNotFound,
		ReasonTempDirectoryNotCreated,
		ReasonStartFailed,
		ReasonStoppedUnexpectedly,
		ReasonTempDirectoryNotDeleted,
	}
}

// DomainError represents a structured error with type and context
type DomainError struct {
	Type    ErrorType
	Reason  Reason
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	if other, ok := target.(*DomainError); ok {
		return e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithReason tags the error with the observer-facing reason
func (e *DomainError) WithReason(reason Reason) *DomainError {
	e.Reason = reason
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

func NewValidationError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, cause)
}

func NewNotFoundError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeNotFound, message, cause)
}

func NewConflictError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeConflict, message, cause)
}

func NewProcessError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeProcess, message, cause)
}

func NewPermissionError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypePermission, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeIO, message, cause)
}

func NewCancelledError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeCancelled, message, cause)
}

func IsValidationError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeValidation
}

func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeNotFound
}

func IsConflictError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeConflict
}

func IsProcessError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeProcess
}

func IsPermissionError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypePermission
}

func IsIOError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeIO
}

func IsCancelledError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == ErrorTypeCancelled
}

// Is mirrors the standard library errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors the standard library errors.As
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// ReasonOf extracts the reason carried by err, or ReasonNone
func ReasonOf(err error) Reason {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Reason
	}
	return ReasonNone
}

// ErrorCollection aggregates errors from best-effort operations
type ErrorCollection struct {
	Errors []error
}

func (e *ErrorCollection) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred: %v", len(e.Errors), e.Errors[0])
}

func (e *ErrorCollection) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *ErrorCollection) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ErrorCollection) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors: make([]error, 0),
	}
}
