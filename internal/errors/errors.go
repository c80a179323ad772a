package errors

import "fmt"

// ElemError carries everything the CLI and MCP layers need to present a
// failure: a stable code, classification derived from that code, an
// optional causal chain, and presentation hints.
type ElemError struct {
	Code     string
	Message  string
	Category Category
	Severity Severity

	// Details holds extra context for logs, keyed by field name.
	Details map[string]string

	// Cause is the wrapped underlying error, if any.
	Cause error

	// Retryable marks failures where waiting and trying again can help,
	// such as a lock held by another process.
	Retryable bool

	// Suggestion tells the user what to do about it.
	Suggestion string
}

// New builds an ElemError for code. Category, Severity, and Retryable
// follow from the code so call sites cannot classify inconsistently.
func New(code string, message string, cause error) *ElemError {
	return &ElemError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap lifts err into an ElemError under code, reusing err's text as the
// message. Wrapping nil yields nil.
func Wrap(code string, err error) *ElemError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

func (e *ElemError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ElemError) Unwrap() error {
	return e.Cause
}

// Is matches two ElemErrors by code, so errors.Is(err, New(code, ...))
// works across independently constructed instances.
func (e *ElemError) Is(target error) bool {
	t, ok := target.(*ElemError)
	return ok && e.Code == t.Code
}

// WithDetail records a key-value pair for logging and returns e.
func (e *ElemError) WithDetail(key, value string) *ElemError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the user-facing remediation hint and returns e.
func (e *ElemError) WithSuggestion(s string) *ElemError {
	e.Suggestion = s
	return e
}

// Shorthand constructors for the common failure classes.

func ConfigError(message string, cause error) *ElemError {
	return New(ErrCodeConfigInvalid, message, cause)
}

func IOError(message string, cause error) *ElemError {
	return New(ErrCodeFileNotFound, message, cause)
}

// LockTimeoutError reports a failed lock acquisition. It is retryable;
// callers usually keep serving the last good in-memory snapshot.
func LockTimeoutError(message string, cause error) *ElemError {
	return New(ErrCodeLockTimeout, message, cause)
}

func ValidationError(message string, cause error) *ElemError {
	return New(ErrCodeInvalidInput, message, cause)
}

func InternalError(message string, cause error) *ElemError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable reports whether err is an ElemError marked retryable.
// Plain errors are never retryable.
func IsRetryable(err error) bool {
	ee, ok := err.(*ElemError)
	return ok && ee.Retryable
}

// IsFatal reports whether err is an ElemError that must abort the
// current operation rather than degrade.
func IsFatal(err error) bool {
	ee, ok := err.(*ElemError)
	return ok && ee.Severity == SeverityFatal
}

// GetCode returns err's code, or "" for nil and plain errors.
func GetCode(err error) string {
	if ee, ok := err.(*ElemError); ok {
		return ee.Code
	}
	return ""
}

// GetCategory returns err's category, or "" for nil and plain errors.
func GetCategory(err error) Category {
	if ee, ok := err.(*ElemError); ok {
		return ee.Category
	}
	return ""
}
