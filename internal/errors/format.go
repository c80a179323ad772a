package errors

import (
	"fmt"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// Lock and IO failures are presented as degraded-but-working outcomes;
// query callers are never exposed to internal error types directly.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}

	ee, ok := err.(*ElemError)
	if !ok {
		return err.Error()
	}

	if ee.Category == CategoryLock || ee.Code == ErrCodeElementRead {
		return "index temporarily unavailable, showing cached results"
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(ee.Message)

	if ee.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(ee.Suggestion)
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", ee.Code))
	return sb.String()
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ee, ok := err.(*ElemError)
	if !ok {
		ee = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ee.Message))

	if ee.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ee.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", ee.Code))
	return sb.String()
}
