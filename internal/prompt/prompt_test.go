package prompt

import (
	"errors"
	"testing"
)

func TestSurveyValidatorAdaptsStringValidator(t *testing.T) {
	wantErr := errors.New("too short")
	validate := surveyValidator(func(s string) error {
		if len(s) < 3 {
			return wantErr
		}
		return nil
	})

	if err := validate("abcd"); err != nil {
		t.Fatalf("valid answer: %v", err)
	}
	if err := validate("ab"); !errors.Is(err, wantErr) {
		t.Fatalf("short answer: got %v, want %v", err, wantErr)
	}
	// Non-string answers reach the validator as an empty string rather than
	// panicking.
	if err := validate(42); !errors.Is(err, wantErr) {
		t.Fatalf("non-string answer: got %v, want %v", err, wantErr)
	}
}
