package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{5,18}$`)
)

// dateLayouts are tried in order when parsing date-valued fields. The first
// entry is the canonical storage format.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"01/02/2006",
}

// ParseDate attempts the accepted date layouts in order.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Builtin returns a registry preloaded with the stock rules and factories.
// Domain rules (patient identifiers and the like) are registered on top by
// RegisterDomain.
func Builtin() *Registry {
	r := NewRegistry()

	r.MustRegister(Rule{
		Name:    "required",
		Test:    func(value string) bool { return strings.TrimSpace(value) != "" },
		Message: "This field is required",
	})
	r.MustRegister(Rule{
		Name:    "email",
		Test:    func(value string) bool { return emailPattern.MatchString(strings.TrimSpace(value)) },
		Message: "Please enter a valid email address",
	})
	r.MustRegister(Rule{
		Name:    "phone",
		Test:    func(value string) bool { return phonePattern.MatchString(strings.TrimSpace(value)) },
		Message: "Please enter a valid phone number",
	})
	r.MustRegister(Rule{
		Name: "numeric",
		Test: func(value string) bool {
			_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			return err == nil
		},
		Message: "Please enter a number",
	})
	r.MustRegister(Rule{
		Name: "positive-number",
		Test: func(value string) bool {
			n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			return err == nil && n > 0
		},
		Message: "Please enter a positive number",
	})
	r.MustRegister(Rule{
		Name: "integer",
		Test: func(value string) bool {
			_, err := strconv.Atoi(strings.TrimSpace(value))
			return err == nil
		},
		Message: "Please enter a whole number",
	})
	r.MustRegister(Rule{
		Name: "date",
		Test: func(value string) bool {
			_, ok := ParseDate(value)
			return ok
		},
		Message: "Please enter a valid date",
	})

	r.MustRegisterFactory("min-length", minLengthFactory)
	r.MustRegisterFactory("max-length", maxLengthFactory)
	r.MustRegisterFactory("pattern", patternFactory)
	r.MustRegisterFactory("soft-range", softRangeFactory)

	return r
}

func minLengthFactory(param string) (Rule, error) {
	n, err := strconv.Atoi(strings.TrimSpace(param))
	if err != nil || n < 0 {
		return Rule{}, fmt.Errorf("min-length wants a non-negative integer, got %q", param)
	}
	return Rule{
		Name:    "min-length",
		Test:    func(value string) bool { return len(strings.TrimSpace(value)) >= n },
		Message: "Must be at least {{ min }} characters",
		Params:  map[string]any{"min": n},
	}, nil
}

func maxLengthFactory(param string) (Rule, error) {
	n, err := strconv.Atoi(strings.TrimSpace(param))
	if err != nil || n < 0 {
		return Rule{}, fmt.Errorf("max-length wants a non-negative integer, got %q", param)
	}
	return Rule{
		Name:    "max-length",
		Test:    func(value string) bool { return len(strings.TrimSpace(value)) <= n },
		Message: "Must be at most {{ max }} characters",
		Params:  map[string]any{"max": n},
	}, nil
}

// patternFactory accepts `pattern:<regex>` or `pattern:<regex>|<message>`.
// The pipe separator keeps the colon free for the regex body.
func patternFactory(param string) (Rule, error) {
	expr := param
	message := "Value has an invalid format"
	if idx := strings.LastIndex(param, "|"); idx >= 0 {
		expr = param[:idx]
		if custom := strings.TrimSpace(param[idx+1:]); custom != "" {
			message = custom
		}
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("pattern %q does not compile: %w", expr, err)
	}
	return Rule{
		Name:    "pattern",
		Test:    func(value string) bool { return re.MatchString(strings.TrimSpace(value)) },
		Message: message,
		Params:  map[string]any{"pattern": expr},
	}, nil
}

// softRangeFactory accepts `soft-range:<min>..<max>` and produces a
// warning-severity rule: values outside the range are flagged but never block
// submission.
func softRangeFactory(param string) (Rule, error) {
	parts := strings.SplitN(strings.TrimSpace(param), "..", 2)
	if len(parts) != 2 {
		return Rule{}, fmt.Errorf("soft-range wants <min>..<max>, got %q", param)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Rule{}, fmt.Errorf("soft-range minimum %q: %w", parts[0], err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Rule{}, fmt.Errorf("soft-range maximum %q: %w", parts[1], err)
	}
	if low > high {
		return Rule{}, fmt.Errorf("soft-range minimum %v exceeds maximum %v", low, high)
	}

	return Rule{
		Name:     "soft-range",
		Severity: SeverityWarning,
		Test: func(value string) bool {
			n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				// Non-numeric input is the numeric rule's problem.
				return true
			}
			return n >= low && n <= high
		},
		Message: "Value is outside the expected range {{ min }}–{{ max }}",
		Params:  map[string]any{"min": low, "max": high},
	}, nil
}
