package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/validation"
)

type recordingPresenter struct {
	valid   []string
	invalid map[string]string
	cleared []string
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{invalid: make(map[string]string)}
}

func (p *recordingPresenter) MarkFieldValid(name string) { p.valid = append(p.valid, name) }
func (p *recordingPresenter) MarkFieldInvalid(name, message string) {
	p.invalid[name] = message
}
func (p *recordingPresenter) ClearFieldState(name string) { p.cleared = append(p.cleared, name) }

func TestFieldValidator(t *testing.T) {
	v := validation.NewFieldValidator(nil)

	tests := []struct {
		name      string
		field     forms.Field
		value     string
		wantValid bool
		wantError string
	}{
		{
			name:      "empty optional passes without running rules",
			field:     forms.Field{Name: "notes", Rules: []string{"email"}},
			value:     "   ",
			wantValid: true,
		},
		{
			name:      "empty required fails",
			field:     forms.Field{Name: "patient_id", Required: true},
			value:     "",
			wantValid: false,
			wantError: "This field is required",
		},
		{
			name:      "valid patient id",
			field:     forms.Field{Name: "patient_id", Required: true, Rules: []string{"patient-id"}},
			value:     "AB123456",
			wantValid: true,
		},
		{
			name:      "invalid patient id",
			field:     forms.Field{Name: "patient_id", Required: true, Rules: []string{"patient-id"}},
			value:     "ab",
			wantValid: false,
		},
		{
			name:      "unknown rule name is a silent pass",
			field:     forms.Field{Name: "x", Rules: []string{"no-such-rule"}},
			value:     "anything",
			wantValid: true,
		},
		{
			name:      "parameterized rule",
			field:     forms.Field{Name: "sample_id", Rules: []string{"min-length:4"}},
			value:     "ab",
			wantValid: false,
			wantError: "Must be at least 4 characters",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := v.Validate(tc.field, tc.value)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if result.Valid != tc.wantValid {
				t.Fatalf("valid = %v, want %v (errors: %v)", result.Valid, tc.wantValid, result.Errors)
			}
			if tc.wantError != "" && result.Error() != tc.wantError {
				t.Fatalf("error = %q, want %q", result.Error(), tc.wantError)
			}
		})
	}
}

func TestFieldValidatorStopsAtFirstError(t *testing.T) {
	v := validation.NewFieldValidator(nil)
	field := forms.Field{
		Name:  "code",
		Rules: []string{"min-length:10", "pattern:^[0-9]+$"},
	}

	result, err := v.Validate(field, "abc")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := []string{"Must be at least 10 characters"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldValidatorCollectsWarnings(t *testing.T) {
	v := validation.NewFieldValidator(nil)
	field := forms.Field{
		Name:  "temperature",
		Rules: []string{"numeric", "soft-range:2..8"},
	}

	result, err := v.Validate(field, "12")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Valid {
		t.Fatalf("warnings must not invalidate: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(result.Warnings))
	}
}

func TestFieldValidatorWarnsAfterHardError(t *testing.T) {
	v := validation.NewFieldValidator(nil)
	field := forms.Field{
		Name:  "temperature",
		Rules: []string{"min-length:10", "soft-range:2..8"},
	}

	result, err := v.Validate(field, "9")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := []string{"Must be at least 10 characters"}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want the out-of-range warning", len(result.Warnings))
	}
}

func TestFieldValidatorPresenter(t *testing.T) {
	p := newRecordingPresenter()
	v := validation.NewFieldValidator(nil, validation.WithPresenter(p))

	field := forms.Field{Name: "patient_id", Required: true, Rules: []string{"patient-id"}}
	if _, err := v.Validate(field, "AB123456"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := v.Validate(field, ""); err != nil {
		t.Fatalf("validate: %v", err)
	}
	v.Clear("patient_id")

	if diff := cmp.Diff([]string{"patient_id"}, p.valid); diff != "" {
		t.Errorf("valid marks mismatch (-want +got):\n%s", diff)
	}
	if got := p.invalid["patient_id"]; got != "This field is required" {
		t.Errorf("invalid message = %q", got)
	}
	if diff := cmp.Diff([]string{"patient_id"}, p.cleared); diff != "" {
		t.Errorf("cleared mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldValidatorBadFactoryParam(t *testing.T) {
	v := validation.NewFieldValidator(nil)
	field := forms.Field{Name: "x", Rules: []string{"min-length:potato"}}
	if _, err := v.Validate(field, "value"); err == nil {
		t.Fatal("expected error for unparsable rule parameter")
	}
}
