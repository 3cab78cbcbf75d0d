// Package notify is the user-facing messaging surface: transient toasts for
// routine outcomes and blocking modals for failures that need a decision.
// The fault handler and the submission orchestrator speak to the user only
// through the Notifier port, so a browser shell, a TUI, or a test fake can
// sit behind it.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/IamBlackShifu/MediTrack/internal/msgtpl"
)

// Level grades a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient, non-blocking message.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Action names a recovery choice offered on a modal.
type Action string

const (
	ActionRefresh        Action = "refresh"
	ActionWipeData       Action = "wipe-data"
	ActionExportLog      Action = "export-log"
	ActionContactSupport Action = "contact-support"
	ActionDismiss        Action = "dismiss"
)

// Modal is a blocking message with recovery actions. Critical faults raise
// one instead of a toast.
type Modal struct {
	Title   string
	Message string
	Detail  string
	Actions []Action
}

// Notifier delivers notifications to whatever shell hosts the forms.
type Notifier interface {
	Toast(n Notification)
	// Modal shows m and returns the action the user picked.
	Modal(m Modal) (Action, error)
}

// Success is shorthand for a success-level toast.
func Success(n Notifier, title, message string) {
	n.Toast(Notification{Level: LevelSuccess, Title: title, Message: message})
}

// Error is shorthand for an error-level toast.
func Error(n Notifier, title, message string) {
	n.Toast(Notification{Level: LevelError, Title: title, Message: message})
}

// Warning is shorthand for a warning-level toast.
func Warning(n Notifier, title, message string) {
	n.Toast(Notification{Level: LevelWarning, Title: title, Message: message})
}

// Receipt renders a submission receipt from a message template. Templates
// may reference the submitted values plus "id" and "resource"; plain strings
// pass through untouched.
func Receipt(template string, data map[string]any) string {
	if !msgtpl.IsTemplate(template) {
		return template
	}
	return msgtpl.Render(template, data)
}

// Console is a Notifier that writes to an io.Writer, used by the CLI and by
// tests that only care that something was said. Modals auto-pick the first
// offered action.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole builds a console notifier over out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Toast(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.Title != "" {
		fmt.Fprintf(c.out, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
		return
	}
	fmt.Fprintf(c.out, "[%s] %s\n", n.Level, n.Message)
}

func (c *Console) Modal(m Modal) (Action, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "!! %s: %s\n", m.Title, m.Message)
	if m.Detail != "" {
		fmt.Fprintf(c.out, "   %s\n", m.Detail)
	}
	if len(m.Actions) == 0 {
		return ActionDismiss, nil
	}
	return m.Actions[0], nil
}
