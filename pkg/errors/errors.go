// Package errors provides custom error types for the uppbod system.
// These errors enable programmatic error checking with errors.Is and
// errors.As, and carry enough context (identity, field, run) to diagnose a
// failed run without replaying the fetch.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the uppbod system
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingIdentity indicates a listing has neither a lot identifier nor a lot name
	ErrMissingIdentity = errors.New("missing identity")

	// ErrDuplicateIdentity indicates two listings in one fetch resolved to the same identity
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrMalformedDate indicates an auction date could not be parsed
	ErrMalformedDate = errors.New("malformed date")

	// ErrEmptySnapshot indicates a fetch produced no storable listings
	ErrEmptySnapshot = errors.New("empty snapshot")

	// ErrSourceUnavailable indicates that the listing feed is temporarily unavailable
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrLocked indicates the store is held by another writer
	ErrLocked = errors.New("store locked")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// MissingIdentityError is reported for a listing that has neither a usable
// lot identifier nor a display name. The listing is dropped from the batch.
type MissingIdentityError struct {
	Index  int      // Position of the listing in the fetched batch
	Fields []string // Fields that were consulted
	RunID  string
}

// Error implements the error interface
func (e *MissingIdentityError) Error() string {
	msg := fmt.Sprintf("listing #%d has no identity (checked %v)", e.Index, e.Fields)
	if e.RunID != "" {
		msg += " in run " + e.RunID
	}
	return msg
}

// Is implements errors.Is support
func (e *MissingIdentityError) Is(target error) bool {
	return target == ErrMissingIdentity
}

// DuplicateIdentityError is reported when a later listing resolves to an
// identity already taken by an earlier listing in the same fetch.
type DuplicateIdentityError struct {
	Identity string
	Index    int // Position of the dropped listing
	First    int // Position of the listing that kept the identity
	RunID    string
}

// Error implements the error interface
func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("listing #%d duplicates identity %q of listing #%d", e.Index, e.Identity, e.First)
}

// Is implements errors.Is support
func (e *DuplicateIdentityError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}

// MalformedDateError is a recovered error: the normalizer passes the raw
// value through unchanged and reports this for diagnostics.
type MalformedDateError struct {
	Identity string
	Field    string
	Value    string
	Err      error
}

// Error implements the error interface
func (e *MalformedDateError) Error() string {
	if e.Identity != "" {
		return fmt.Sprintf("malformed date %q in field %s of %s", e.Value, e.Field, e.Identity)
	}
	return fmt.Sprintf("malformed date %q in field %s", e.Value, e.Field)
}

// Unwrap implements errors.Unwrap
func (e *MalformedDateError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedDateError) Is(target error) bool {
	return target == ErrMalformedDate
}

// EmptySnapshotError is a warning raised by the sync orchestrator when the
// filtered snapshot holds no listings.
type EmptySnapshotError struct {
	Source  string
	RunID   string
	Fetched int // Listings fetched before filtering
	Policy  string
}

// Error implements the error interface
func (e *EmptySnapshotError) Error() string {
	return fmt.Sprintf("empty snapshot from %s (fetched %d, policy %s, run %s)", e.Source, e.Fetched, e.Policy, e.RunID)
}

// Is implements errors.Is support
func (e *EmptySnapshotError) Is(target error) bool {
	return target == ErrEmptySnapshot
}

// APIError represents an error from the listing feed
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Source, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode >= 500 || e.StatusCode == 429 {
		return target == ErrSourceUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// LockError reports that the store lock could not be taken.
type LockError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *LockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lock %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("lock %s: held by another process", e.Path)
}

// Unwrap implements errors.Unwrap
func (e *LockError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *LockError) Is(target error) bool {
	return target == ErrLocked
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMissingIdentity checks if an error is a missing identity error
func IsMissingIdentity(err error) bool {
	return errors.Is(err, ErrMissingIdentity)
}

// IsMalformedDate checks if an error is a malformed date error
func IsMalformedDate(err error) bool {
	return errors.Is(err, ErrMalformedDate)
}

// IsEmptySnapshot checks if an error is an empty snapshot warning
func IsEmptySnapshot(err error) bool {
	return errors.Is(err, ErrEmptySnapshot)
}

// IsLocked checks if an error indicates the store is held by another writer
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsSourceUnavailable checks if an error indicates feed unavailability
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "csv", ...
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "load", "save", "fetch", "open"
	Resource  string // "store", "source", "backend", "report"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(source string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
