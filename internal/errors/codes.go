// Package errors defines the structured error model for elemdex.
//
// Every failure gets a stable ERR_XXX_NAME code. The hundreds digit is
// the category: 1xx configuration, 2xx file and snapshot IO, 3xx
// cross-process locking, 4xx input validation, 5xx internal. Category,
// severity, and retryability are all derived from the code, never set
// independently.
package errors

// Category groups error codes for logging and presentation.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryIO         Category = "IO"
	CategoryLock       Category = "LOCK"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity says how a caller should react.
type Severity string

const (
	// SeverityFatal aborts the current operation.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails the operation; the process continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning means degraded service, e.g. stale results.
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

const (
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission  = "ERR_202_FILE_PERMISSION"
	ErrCodeDiskFull        = "ERR_203_DISK_FULL"
	ErrCodeCorruptSnapshot = "ERR_204_CORRUPT_SNAPSHOT"
	ErrCodeElementRead     = "ERR_205_ELEMENT_READ"

	ErrCodeLockTimeout = "ERR_301_LOCK_TIMEOUT"
	ErrCodeLockHeld    = "ERR_302_LOCK_HELD"
	ErrCodeLockCorrupt = "ERR_303_LOCK_CORRUPT"

	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidElementID = "ERR_402_INVALID_ELEMENT_ID"
	ErrCodeUnknownElement   = "ERR_403_UNKNOWN_ELEMENT"

	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeBuildFailed = "ERR_502_BUILD_FAILED"
)

// categoryFromCode reads the hundreds digit out of "ERR_XYZ_...".
// Anything malformed is treated as internal.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryLock
	case '4':
		return CategoryValidation
	}
	return CategoryInternal
}

func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodeDiskFull:
		return SeverityFatal
	}
	// Retryable failures only degrade service: the index keeps answering
	// from the last good snapshot, so they rank as warnings.
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeLockTimeout, ErrCodeLockHeld, ErrCodeElementRead:
		return true
	}
	return false
}
