package rules_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/IamBlackShifu/MediTrack/pkg/rules"
)

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := rules.NewRegistry()

	rule := rules.Rule{
		Name:    "uppercase",
		Test:    func(v string) bool { return v == strings.ToUpper(v) },
		Message: "Must be uppercase",
	}
	if err := reg.Register(rule); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(rule); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}

	got, ok, err := reg.Resolve("uppercase")
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	if !got.Test("ABC") || got.Test("abc") {
		t.Fatal("resolved rule does not behave like the registered one")
	}
}

func TestRegistryUnknownRulePassesSilently(t *testing.T) {
	reg := rules.NewRegistry()

	_, ok, err := reg.Resolve("not-yet-implemented")
	if err != nil {
		t.Fatalf("unknown rule must not error, got %v", err)
	}
	if ok {
		t.Fatal("unknown rule resolved unexpectedly")
	}

	// Parameterized spec with no matching factory behaves the same way.
	_, ok, err = reg.Resolve("missing:42")
	if err != nil || ok {
		t.Fatalf("unknown factory: ok=%v err=%v", ok, err)
	}
}

func TestRegistryFactoryParameterErrors(t *testing.T) {
	reg := rules.Builtin()

	if _, _, err := reg.Resolve("min-length:nope"); err == nil {
		t.Fatal("expected a bad factory parameter to error")
	}
}

func TestRegistryList(t *testing.T) {
	reg := rules.NewRegistry()
	reg.MustRegister(rules.Rule{Name: "b", Test: func(string) bool { return true }})
	reg.MustRegister(rules.Rule{Name: "a", Test: func(string) bool { return true }})
	reg.MustRegisterFactory("c", func(string) (rules.Rule, error) { return rules.Rule{}, nil })

	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if !reg.Has("c") || reg.Has("z") {
		t.Fatal("Has reported wrong membership")
	}
}

func TestSplitSpecKeepsColonsInParam(t *testing.T) {
	name, param, ok := rules.SplitSpec("pattern:^[a-z]{2}:[0-9]+$")
	if !ok || name != "pattern" || param != "^[a-z]{2}:[0-9]+$" {
		t.Fatalf("got name=%q param=%q ok=%v", name, param, ok)
	}
}
