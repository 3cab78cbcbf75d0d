package validation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/rules"
)

const requiredMessage = "This field is required"

// FieldPresenter receives per-field outcomes so a UI can mirror validation
// state next to the input. Implementations must tolerate repeated calls for
// the same field.
type FieldPresenter interface {
	MarkFieldValid(name string)
	MarkFieldInvalid(name, message string)
	ClearFieldState(name string)
}

// FieldValidator checks a single value against a field's rule specs.
type FieldValidator struct {
	registry  *rules.Registry
	presenter FieldPresenter
	logger    *slog.Logger
}

// FieldOption configures a FieldValidator.
type FieldOption func(*FieldValidator)

// WithPresenter mirrors outcomes into the given presenter.
func WithPresenter(p FieldPresenter) FieldOption {
	return func(v *FieldValidator) {
		v.presenter = p
	}
}

// WithLogger overrides the validator's logger.
func WithLogger(logger *slog.Logger) FieldOption {
	return func(v *FieldValidator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewFieldValidator builds a validator over the given registry. A nil
// registry gets the default domain registry.
func NewFieldValidator(registry *rules.Registry, opts ...FieldOption) *FieldValidator {
	if registry == nil {
		registry = rules.Default()
	}
	v := &FieldValidator{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate evaluates a value against a field's rules. An empty value on an
// optional field is always valid and skips every rule. Only the first hard
// error is surfaced, but warning rules anywhere in the list still run so
// advisory messages are never lost.
func (v *FieldValidator) Validate(field forms.Field, value string) (Result, error) {
	result, err := v.validate(field, value)
	if err != nil {
		return Result{}, err
	}
	v.present(field.Name, result)
	return result, nil
}

func (v *FieldValidator) validate(field forms.Field, value string) (Result, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if field.Required {
			return Result{Errors: []string{requiredMessage}}, nil
		}
		return ValidResult(), nil
	}

	result := Result{Valid: true}
	for _, spec := range field.Rules {
		rule, ok, err := v.registry.Resolve(spec)
		if err != nil {
			return Result{}, fmt.Errorf("validation: field %q: %w", field.Name, err)
		}
		if !ok {
			// Unknown rule names pass silently so a stale definition never
			// blocks data entry.
			v.logger.Debug("skipping unknown validation rule",
				slog.String("field", field.Name),
				slog.String("rule", spec))
			continue
		}
		// After the first hard error only warning rules still run.
		if !result.Valid && !rule.IsWarning() {
			continue
		}
		if rule.Test(trimmed) {
			continue
		}
		message := rule.FailureMessage(trimmed)
		if rule.IsWarning() {
			result.Warnings = append(result.Warnings, message)
			continue
		}
		result.Valid = false
		result.Errors = append(result.Errors, message)
	}
	return result, nil
}

func (v *FieldValidator) present(name string, result Result) {
	if v.presenter == nil {
		return
	}
	if result.Valid {
		v.presenter.MarkFieldValid(name)
		return
	}
	v.presenter.MarkFieldInvalid(name, result.Error())
}

// Clear resets any presented state for the named field, for use when a form
// is wiped or reset after submission.
func (v *FieldValidator) Clear(name string) {
	if v.presenter != nil {
		v.presenter.ClearFieldState(name)
	}
}
