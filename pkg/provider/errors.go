package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors for provider operations.
var (
	// ErrRequestFailed indicates a provider API call returned a non-success response.
	ErrRequestFailed = errors.New("provider request failed")

	// ErrUnauthorized indicates authentication failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTooManyPages indicates a listing did not terminate within the page limit.
	ErrTooManyPages = errors.New("too many result pages")
)

// ConfigError represents a configuration error raised at construction time.
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s=%q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// ErrConfigMissing creates an error for a missing required configuration field.
func ErrConfigMissing(field string) error {
	return &ConfigError{
		Field:   field,
		Message: "required but not set",
	}
}

// ErrConfigInvalid creates an error for an invalid configuration value.
func ErrConfigInvalid(field, value, message string) error {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// UnknownProviderError is returned when a label has no registered factory.
type UnknownProviderError struct {
	Label string
	Known []string
}

func (e *UnknownProviderError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown provider %q (no providers registered)", e.Label)
	}
	return fmt.Sprintf("unknown provider %q (known providers: %s)", e.Label, strings.Join(e.Known, ", "))
}

// RequestError wraps a failed provider API call with its context.
type RequestError struct {
	Provider   string
	Operation  string
	StatusCode int // zero when the request never produced a response
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: %s: status %d: %v", e.Provider, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRequestFailed) match every RequestError.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// WrapRequestError wraps err with provider context.
func WrapRequestError(provider, operation string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &RequestError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}

// IsConfigError returns true if the error is a construction-time configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsUnknownProvider returns true if the error reports an unregistered provider label.
func IsUnknownProvider(err error) bool {
	var ue *UnknownProviderError
	return errors.As(err, &ue)
}

// IsRequestError returns true if the error indicates a failed provider API call.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrRequestFailed)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
