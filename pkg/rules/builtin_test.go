package rules_test

import (
	"testing"

	"github.com/IamBlackShifu/MediTrack/pkg/rules"
)

func resolve(t *testing.T, reg *rules.Registry, spec string) rules.Rule {
	t.Helper()
	rule, ok, err := reg.Resolve(spec)
	if err != nil {
		t.Fatalf("resolve %q: %v", spec, err)
	}
	if !ok {
		t.Fatalf("rule %q not registered", spec)
	}
	return rule
}

func TestBuiltinRules(t *testing.T) {
	reg := rules.Builtin()

	cases := []struct {
		spec  string
		value string
		want  bool
	}{
		{"required", "x", true},
		{"required", "   ", false},
		{"email", "nurse@clinic.example", true},
		{"email", "nurse@clinic", false},
		{"email", "not-an-email", false},
		{"phone", "+263 77 123 4567", true},
		{"phone", "letters", false},
		{"numeric", "12.5", true},
		{"numeric", "12,5", false},
		{"positive-number", "0.1", true},
		{"positive-number", "0", false},
		{"positive-number", "-3", false},
		{"integer", "42", true},
		{"integer", "4.2", false},
		{"date", "2024-01-31", true},
		{"date", "31/01/2024", true},
		{"date", "not a date", false},
		{"min-length:4", "abcd", true},
		{"min-length:4", "abc", false},
		{"max-length:4", "abcd", true},
		{"max-length:4", "abcde", false},
		{"pattern:^[A-Z]{3}$", "ABC", true},
		{"pattern:^[A-Z]{3}$", "ABCD", false},
	}

	for _, tc := range cases {
		rule := resolve(t, reg, tc.spec)
		if got := rule.Test(tc.value); got != tc.want {
			t.Errorf("%s(%q) = %v, want %v", tc.spec, tc.value, got, tc.want)
		}
	}
}

func TestParameterizedMessages(t *testing.T) {
	reg := rules.Builtin()

	rule := resolve(t, reg, "min-length:8")
	if got, want := rule.FailureMessage("abc"), "Must be at least 8 characters"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}

	custom := resolve(t, reg, "pattern:^[0-9]+$|Digits only please")
	if got := custom.FailureMessage("x"); got != "Digits only please" {
		t.Fatalf("custom message = %q", got)
	}
}

func TestSoftRangeIsWarning(t *testing.T) {
	reg := rules.Builtin()

	rule := resolve(t, reg, "soft-range:36.0..38.5")
	if !rule.IsWarning() {
		t.Fatal("soft-range should be warning severity")
	}
	if !rule.Test("37.2") {
		t.Fatal("in-range value flagged")
	}
	if rule.Test("40") {
		t.Fatal("out-of-range value passed")
	}
	// Non-numeric input is left to the numeric rule.
	if !rule.Test("n/a") {
		t.Fatal("non-numeric value should pass the soft range")
	}
}

func TestDomainRules(t *testing.T) {
	reg := rules.Default()

	cases := []struct {
		spec  string
		value string
		want  bool
	}{
		{"patient-id", "AB123456", true},
		{"patient-id", "A1B2C3", true},
		{"patient-id", "ab123456", false},
		{"patient-id", "AB123", false},
		{"patient-id", "ABCDEF1234567", false},
		{"drug-code", "AMX500", true},
		{"drug-code", "ab", false},
		{"batch-number", "B-2024-001", true},
		{"batch-number", "b!", false},
		{"concentration", "250 mg/ml", true},
		{"concentration", "0.9 %", true},
		{"concentration", "500mg", true},
		{"concentration", "mg 250", false},
		{"concentration", "250 bananas", false},
	}

	for _, tc := range cases {
		rule := resolve(t, reg, tc.spec)
		if got := rule.Test(tc.value); got != tc.want {
			t.Errorf("%s(%q) = %v, want %v", tc.spec, tc.value, got, tc.want)
		}
	}
}
