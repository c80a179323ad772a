package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Construction Tests
// =============================================================================

func TestNew(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := New(ErrCodeLockTimeout, "lock not acquired", cause)

	assert.Equal(t, ErrCodeLockTimeout, err.Code)
	assert.Equal(t, "lock not acquired", err.Message)
	assert.Equal(t, CategoryLock, err.Category)
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.True(t, err.Retryable)
	assert.Same(t, cause, err.Cause)
	assert.Equal(t, "[ERR_301_LOCK_TIMEOUT] lock not acquired", err.Error())
}

func TestCategoryDerivedFromCode(t *testing.T) {
	tests := []struct {
		code string
		want Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeCorruptSnapshot, CategoryIO},
		{ErrCodeLockTimeout, CategoryLock},
		{ErrCodeInvalidElementID, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "m", nil).Category)
		})
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("disk exploded")
	err := Wrap(ErrCodeFilePermission, cause)

	require.NotNil(t, err)
	assert.Equal(t, "disk exploded", err.Message)
	assert.Same(t, cause, err.Cause)

	assert.Nil(t, Wrap(ErrCodeFilePermission, nil))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := IOError("cannot read snapshot", nil).
		WithDetail("path", "/state/relationships.json").
		WithSuggestion("check directory permissions")

	assert.Equal(t, "/state/relationships.json", err.Details["path"])
	assert.Equal(t, "check directory permissions", err.Suggestion)
}

// =============================================================================
// Error Chain Tests
// =============================================================================

func TestUnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := LockTimeoutError("timed out", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, stderrors.Is(err, &ElemError{Code: ErrCodeLockTimeout}))
	assert.False(t, stderrors.Is(err, &ElemError{Code: ErrCodeInternal}))
}

// =============================================================================
// Classification Helper Tests
// =============================================================================

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(LockTimeoutError("t", nil)))
	assert.True(t, IsRetryable(New(ErrCodeElementRead, "m", nil)))
	assert.False(t, IsRetryable(InternalError("m", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ConfigError("bad thresholds", nil)))
	assert.False(t, IsFatal(LockTimeoutError("t", nil)))
	assert.False(t, IsFatal(nil))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := ValidationError("bad id", nil)
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
	assert.Equal(t, CategoryValidation, GetCategory(err))

	assert.Empty(t, GetCode(fmt.Errorf("plain")))
	assert.Empty(t, string(GetCategory(fmt.Errorf("plain"))))
}

// =============================================================================
// Formatting Tests
// =============================================================================

func TestFormatForUser(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "lock failure reads as degraded, not broken",
			err:  LockTimeoutError("lock not acquired within 5s", nil),
			want: "index temporarily unavailable, showing cached results",
		},
		{
			name: "element read failure reads as degraded",
			err:  New(ErrCodeElementRead, "cannot read persona", nil),
			want: "index temporarily unavailable, showing cached results",
		},
		{
			name: "plain error passes through",
			err:  fmt.Errorf("plain failure"),
			want: "plain failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatForUser(tt.err))
		})
	}
}

func TestFormatForUser_IncludesSuggestionAndCode(t *testing.T) {
	err := ConfigError("entropy bands out of order", nil).
		WithSuggestion("set low < moderate < high")

	got := FormatForUser(err)
	assert.Contains(t, got, "entropy bands out of order")
	assert.Contains(t, got, "set low < moderate < high")
	assert.Contains(t, got, ErrCodeConfigInvalid)
}

func TestFormatForCLI(t *testing.T) {
	err := ValidationError("unknown element type", nil).WithSuggestion("use type:name")

	got := FormatForCLI(err)
	assert.Contains(t, got, "Error: unknown element type")
	assert.Contains(t, got, "Hint: use type:name")
	assert.Contains(t, got, ErrCodeInvalidInput)

	assert.Empty(t, FormatForCLI(nil))
	assert.Contains(t, FormatForCLI(fmt.Errorf("plain")), ErrCodeInternal)
}
