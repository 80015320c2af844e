package errors

import "errors"

// Codes shared across the exporter. Each one maps to a failure class the
// command reports before exiting.
const (
	CodeConfigInvalid        = "config_invalid"
	CodeSecretsInvalid       = "secrets_invalid"
	CodeCSRFMismatch         = "csrf_mismatch"
	CodeMissingToken         = "missing_token"
	CodeAuthorizationDenied  = "authorization_denied"
	CodeAuthorizationUnknown = "authorization_unknown"
	CodeCallbackTimeout      = "callback_timeout"
	CodeUpstream             = "upstream_error"
	CodePayloadInvalid       = "payload_invalid"
	CodeSnapshot             = "snapshot_error"
	CodeSink                 = "sink_error"
	CodeInvalidInput         = "invalid_input"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode reports whether any AppError in the chain carries code.
func IsCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// CodeOf returns the code of the outermost AppError, or "" when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
