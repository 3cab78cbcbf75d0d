package notify_test

import (
	"strings"
	"testing"

	"github.com/IamBlackShifu/MediTrack/pkg/notify"
)

func TestConsoleToast(t *testing.T) {
	var buf strings.Builder
	console := notify.NewConsole(&buf)

	notify.Success(console, "Saved", "Record submitted")
	notify.Error(console, "", "Network unreachable")

	out := buf.String()
	if !strings.Contains(out, "[success] Saved: Record submitted") {
		t.Errorf("missing success line: %q", out)
	}
	if !strings.Contains(out, "[error] Network unreachable") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestConsoleModalPicksFirstAction(t *testing.T) {
	var buf strings.Builder
	console := notify.NewConsole(&buf)

	action, err := console.Modal(notify.Modal{
		Title:   "Something went wrong",
		Message: "Storage is corrupted",
		Actions: []notify.Action{notify.ActionWipeData, notify.ActionContactSupport},
	})
	if err != nil {
		t.Fatalf("modal: %v", err)
	}
	if action != notify.ActionWipeData {
		t.Fatalf("action = %q", action)
	}
}

func TestReceipt(t *testing.T) {
	got := notify.Receipt("Recorded {{ medicine }} for {{ resource }}", map[string]any{
		"medicine": "Amoxicillin",
		"resource": "pharmacyStocks",
	})
	if got != "Recorded Amoxicillin for pharmacyStocks" {
		t.Fatalf("receipt = %q", got)
	}

	if got := notify.Receipt("Submission saved", nil); got != "Submission saved" {
		t.Fatalf("plain receipt = %q", got)
	}
}
