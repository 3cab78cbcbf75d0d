// Package faults normalizes everything that can go wrong during form
// handling into categorized, user-presentable faults, and centralizes how
// they are logged, persisted, and surfaced.
package faults

import (
	"time"

	"github.com/google/uuid"
)

// Fault is a normalized error with enough context to log, display, and
// export. It implements error so it can flow through ordinary return paths.
type Fault struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Code      int            `json:"code,omitempty"`
	Category  Category       `json:"category"`
	Severity  Severity       `json:"severity"`
	Context   map[string]any `json:"context,omitempty"`

	cause error
}

func (f Fault) Error() string {
	return f.Message
}

// Unwrap exposes the original error for errors.Is/As chains.
func (f Fault) Unwrap() error {
	return f.cause
}

// Critical reports whether the fault should block with a modal.
func (f Fault) Critical() bool {
	return f.Severity == SeverityCritical
}

// New builds a Fault directly, for call sites that already know the
// category.
func New(category Category, message string) Fault {
	return Fault{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Message:   message,
		Category:  category,
		Severity:  DefaultPolicies()[category].Severity,
	}
}

// WithContext returns a copy of the fault carrying an extra context entry.
func (f Fault) WithContext(key string, value any) Fault {
	ctx := make(map[string]any, len(f.Context)+1)
	for k, v := range f.Context {
		ctx[k] = v
	}
	ctx[key] = value
	f.Context = ctx
	return f
}
