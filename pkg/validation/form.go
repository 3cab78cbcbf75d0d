package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/rules"
)

// FormValidator sweeps every field of a definition and then applies the
// definition's cross-field checks.
type FormValidator struct {
	fields *FieldValidator
}

// NewFormValidator wraps a field validator. A nil validator gets a default
// one over the domain registry.
func NewFormValidator(fields *FieldValidator) *FormValidator {
	if fields == nil {
		fields = NewFieldValidator(nil)
	}
	return &FormValidator{fields: fields}
}

// Validate checks all values against the definition. Per-field rules run
// first in definition order; cross-field checks run only between fields that
// individually passed, so a malformed date never produces a second, noisier
// ordering error.
func (v *FormValidator) Validate(def forms.Definition, values forms.Values) (FormResult, error) {
	out := FormResult{
		Valid:  true,
		Fields: make(map[string]Result, len(def.Fields)),
	}

	for _, field := range def.Fields {
		result, err := v.fields.Validate(field, values[field.Name])
		if err != nil {
			return FormResult{}, err
		}
		out.Fields[field.Name] = result
		out.warnings = append(out.warnings, result.Warnings...)
		if !result.Valid {
			out.Valid = false
			out.Errors = append(out.Errors, result.Errors...)
			if out.FirstInvalid == "" {
				out.FirstInvalid = field.Name
			}
		}
	}

	for _, check := range def.CrossChecks {
		first, second := out.Fields[check.First], out.Fields[check.Second]
		if !first.Valid || !second.Valid {
			continue
		}
		message, err := evaluateCrossCheck(def, check, values)
		if err != nil {
			return FormResult{}, err
		}
		if message == "" {
			continue
		}
		failed := out.Fields[check.Second]
		failed.Valid = false
		failed.Errors = append(failed.Errors, message)
		out.Fields[check.Second] = failed
		v.fields.present(check.Second, failed)

		out.Valid = false
		out.Errors = append(out.Errors, message)
		if out.FirstInvalid == "" {
			out.FirstInvalid = check.Second
		}
	}
	return out, nil
}

// evaluateCrossCheck returns a failure message, or "" when the check passes
// or does not apply. Checks never fire across empty values; presence is the
// required rule's job.
func evaluateCrossCheck(def forms.Definition, check forms.CrossCheck, values forms.Values) (string, error) {
	first := strings.TrimSpace(values[check.First])
	second := strings.TrimSpace(values[check.Second])
	if first == "" || second == "" {
		return "", nil
	}

	firstLabel := fieldLabel(def, check.First)
	secondLabel := fieldLabel(def, check.Second)

	switch check.Kind {
	case forms.CrossCheckDateOrder:
		a, okA := rules.ParseDate(first)
		b, okB := rules.ParseDate(second)
		if !okA || !okB {
			return "", nil
		}
		if a.After(b) {
			return crossCheckMessage(check, fmt.Sprintf("%s must not be before %s", secondLabel, firstLabel)), nil
		}
	case forms.CrossCheckTimeOrder:
		a, errA := parseClock(first)
		b, errB := parseClock(second)
		if errA != nil || errB != nil {
			return "", nil
		}
		if a.After(b) {
			return crossCheckMessage(check, fmt.Sprintf("%s must not be before %s", secondLabel, firstLabel)), nil
		}
	case forms.CrossCheckIDPrefix:
		prefix := strings.ToUpper(first)
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		if !strings.HasPrefix(strings.ToUpper(second), prefix) {
			return crossCheckMessage(check, fmt.Sprintf("%s must begin with %s", secondLabel, prefix)), nil
		}
	default:
		return "", fmt.Errorf("validation: unsupported cross check kind %q", check.Kind)
	}
	return "", nil
}

func crossCheckMessage(check forms.CrossCheck, fallback string) string {
	if check.Message != "" {
		return check.Message
	}
	return fallback
}

func fieldLabel(def forms.Definition, name string) string {
	if field, ok := def.Field(name); ok && field.Label != "" {
		return field.Label
	}
	return name
}

func parseClock(value string) (time.Time, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("validation: %q is not a clock time", value)
}
