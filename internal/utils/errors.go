package utils

import (
	"errors"
	"fmt"

	"github.com/hugeolab/hubsync/internal/types"
)

// Exit codes
const (
	ExitSuccess = 0
	// Auth errors (10-19)
	ExitAuthRequired = 10
	// Local filesystem errors (20-29)
	ExitNotFound    = 20
	ExitInvalidPath = 21
	// Network / remote errors (30-39)
	ExitNetworkError   = 30
	ExitTerminalCommit = 31
	// Validation errors (40-49)
	ExitInvalidArgument = 40
	// Mirror errors (50-59)
	ExitMirrorTransport = 50
	// Partial failure of the combined pipeline
	ExitPartialFailure = 60
	// Unknown
	ExitUnknown = 99
)

// Error codes (tool-owned, stable)
const (
	ErrCodeAuthRequired        = "AUTH_REQUIRED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidPath         = "INVALID_PATH"
	ErrCodeInvalidArgument     = "INVALID_ARGUMENT"
	ErrCodeNetworkError        = "NETWORK_ERROR"
	ErrCodeRemoteProbeDegraded = "REMOTE_PROBE_DEGRADED"
	ErrCodeTransientCommit     = "TRANSIENT_COMMIT_FAILURE"
	ErrCodeTerminalCommit      = "TERMINAL_COMMIT_FAILURE"
	ErrCodeMirrorTransport     = "MIRROR_TRANSPORT_FAILURE"
	ErrCodePartialFailure      = "PARTIAL_FAILURE"
	ErrCodeUnknown             = "UNKNOWN"
)

// CLIErrorBuilder helps construct CLIError instances
type CLIErrorBuilder struct {
	err types.CLIError
}

// NewCLIError creates a new error builder
func NewCLIError(code, message string) *CLIErrorBuilder {
	return &CLIErrorBuilder{
		err: types.CLIError{
			Code:    code,
			Message: message,
		},
	}
}

func (b *CLIErrorBuilder) WithHTTPStatus(status int) *CLIErrorBuilder {
	b.err.HTTPStatus = status
	return b
}

func (b *CLIErrorBuilder) WithRetryable(retryable bool) *CLIErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *CLIErrorBuilder) WithContext(key string, value interface{}) *CLIErrorBuilder {
	if b.err.Context == nil {
		b.err.Context = make(map[string]interface{})
	}
	b.err.Context[key] = value
	return b
}

func (b *CLIErrorBuilder) Build() types.CLIError {
	return b.err
}

// GetExitCode returns the exit code for an error code
func GetExitCode(errorCode string) int {
	mapping := map[string]int{
		ErrCodeAuthRequired:    ExitAuthRequired,
		ErrCodeNotFound:        ExitNotFound,
		ErrCodeInvalidPath:     ExitInvalidPath,
		ErrCodeInvalidArgument: ExitInvalidArgument,
		ErrCodeNetworkError:    ExitNetworkError,
		ErrCodeTransientCommit: ExitNetworkError,
		ErrCodeTerminalCommit:  ExitTerminalCommit,
		ErrCodeMirrorTransport: ExitMirrorTransport,
		ErrCodePartialFailure:  ExitPartialFailure,
	}
	if code, ok := mapping[errorCode]; ok {
		return code
	}
	return ExitUnknown
}

// AppError is a custom error type that carries CLI error info
type AppError struct {
	CLIError types.CLIError
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.CLIError.Code, e.CLIError.Message)
}

// NewAppError creates an AppError from a CLIError
func NewAppError(cliErr types.CLIError) *AppError {
	return &AppError{CLIError: cliErr}
}

// CodeOf extracts the stable error code from err, or ErrCodeUnknown
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.CLIError.Code
	}
	return ErrCodeUnknown
}
