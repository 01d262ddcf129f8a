package errors

import (
	"fmt"
)

// NewConfigError creates a configuration error for one config key
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key)
}

// NewGraphAPIError wraps a failed Cloud API call with its endpoint and
// status code. 5xx and throttling responses are marked retryable so callers
// that do retry can distinguish them; the outbound send path ignores the
// flag deliberately.
func NewGraphAPIError(endpoint string, statusCode int, err error) *AppError {
	appErr := Wrap(err, ErrCodeGraphAPI, "Cloud API call failed").
		WithContext("endpoint", endpoint).
		WithContext("status_code", statusCode)

	if statusCode >= 500 || statusCode == 429 || statusCode == 408 {
		appErr.Retryable = true
	}

	return appErr
}

// NewIdentityError wraps a failed identity resolution. No identity means no
// valid handshake, so these are fatal to the connection attempt.
func NewIdentityError(err error) *AppError {
	return Wrap(err, ErrCodeIdentityResolution, "failed to resolve bot identity")
}

// NewFrameError creates an error for a malformed or invalid control frame
func NewFrameError(err error, message string) *AppError {
	return Wrap(err, ErrCodeInvalidFrame, message)
}

// NewValidationError creates a validation error with field context
func NewValidationError(field, message string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("invalid %s: %s", field, message)).
		WithContext("field", field)
}
