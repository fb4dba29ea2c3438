package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for terminal output:
//
//	Error: invalid regular expression for pattern "ipv4"
//	  pattern: ipv4
//	  Hint: check the pattern file syntax
//	  Code: ERR_402_INVALID_PATTERN
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ae, ok := As(err)
	if !ok {
		ae = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ae.Message)
	for _, k := range sortedKeys(ae.Details) {
		fmt.Fprintf(&sb, "  %s: %s\n", k, ae.Details[k])
	}
	if ae.Cause != nil && ae.Cause.Error() != ae.Message {
		fmt.Fprintf(&sb, "  Cause: %s\n", ae.Cause)
	}
	if ae.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", ae.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", ae.Code)
	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ae, ok := As(err)
	if !ok {
		ae = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ae.Code,
		Message:    ae.Message,
		Category:   string(ae.Category),
		Severity:   string(ae.Severity),
		Details:    ae.Details,
		Suggestion: ae.Suggestion,
		Retryable:  ae.Retryable,
	}
	if ae.Cause != nil {
		je.Cause = ae.Cause.Error()
	}
	return json.Marshal(je)
}

// LogAttrs returns slog attributes describing err.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	ae, ok := As(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", ae.Code),
		slog.String("error", ae.Message),
		slog.String("category", string(ae.Category)),
		slog.String("severity", string(ae.Severity)),
	}
	if ae.Cause != nil {
		attrs = append(attrs, slog.String("cause", ae.Cause.Error()))
	}
	for _, k := range sortedKeys(ae.Details) {
		attrs = append(attrs, slog.String("detail_"+k, ae.Details[k]))
	}
	return attrs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
