package rules

import (
	"strings"

	"github.com/IamBlackShifu/MediTrack/internal/msgtpl"
)

// Severity controls whether a failing rule blocks submission or merely warns.
type Severity string

const (
	// SeverityError marks rules whose failure invalidates the field.
	SeverityError Severity = "error"
	// SeverityWarning marks advisory rules; warnings never block submission.
	SeverityWarning Severity = "warning"
)

// Rule is a named predicate plus the user-facing message surfaced when the
// predicate fails. Rules are immutable once registered. The message may be a
// pongo2 template; Params seeds its render context so parameterized rules can
// interpolate their configuration (for example the minimum length).
type Rule struct {
	Name     string
	Severity Severity
	Test     func(value string) bool
	Message  string
	Params   map[string]any
}

// FailureMessage renders the rule's message for the supplied value. Plain
// string messages pass through untouched.
func (r Rule) FailureMessage(value string) string {
	data := map[string]any{"value": value}
	for key, param := range r.Params {
		data[key] = param
	}
	return msgtpl.Render(r.Message, data)
}

// severityOrDefault normalizes the zero value to an error-severity rule.
func (r Rule) severityOrDefault() Severity {
	if r.Severity == SeverityWarning {
		return SeverityWarning
	}
	return SeverityError
}

// IsWarning reports whether a failure of this rule is advisory only.
func (r Rule) IsWarning() bool {
	return r.severityOrDefault() == SeverityWarning
}

// Factory builds a parameterized rule from the text after the colon in a
// `name:param` spec. Factories must return an error for unusable parameters
// so misconfigured forms fail at load time rather than passing silently.
type Factory func(param string) (Rule, error)

// SplitSpec separates a rule spec into its registry name and parameter. The
// parameter may itself contain colons (regex patterns do), so only the first
// colon delimits.
func SplitSpec(spec string) (name, param string, parameterized bool) {
	trimmed := strings.TrimSpace(spec)
	if idx := strings.Index(trimmed, ":"); idx >= 0 {
		return trimmed[:idx], trimmed[idx+1:], true
	}
	return trimmed, "", false
}
