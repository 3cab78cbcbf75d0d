// Package meditrack re-exports the intake pipeline's main entry points so
// callers can wire a working form flow from the root package.
package meditrack

import (
	"context"

	"github.com/IamBlackShifu/MediTrack/pkg/backend"
	"github.com/IamBlackShifu/MediTrack/pkg/draft"
	"github.com/IamBlackShifu/MediTrack/pkg/faults"
	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/rules"
	"github.com/IamBlackShifu/MediTrack/pkg/submit"
	"github.com/IamBlackShifu/MediTrack/pkg/validation"
)

// Definition describes one form: fields, rules, and cross-field checks.
type Definition = forms.Definition

// Values holds raw user input keyed by field name.
type Values = forms.Values

// Record is one row submitted to or read from the backend.
type Record = backend.Record

// Result is the outcome of one submission attempt.
type Result = submit.Result

// Fault is a categorized runtime error.
type Fault = faults.Fault

// NewOrchestrator exposes the submission orchestrator constructor from the
// top-level module.
func NewOrchestrator(client backend.Client, options ...submit.Option) *submit.Orchestrator {
	return submit.New(client, options...)
}

// DefaultRules returns the registry with the builtin and clinical domain
// rules registered.
func DefaultRules() *rules.Registry {
	return rules.Default()
}

// NewValidator builds a form validator over the default rule registry.
func NewValidator() *validation.FormValidator {
	return validation.NewFormValidator(nil)
}

// Submit validates values against the definition and writes the record,
// using a one-off orchestrator with default policies. It is the simplest
// entry point for callers that just want a record stored.
func Submit(ctx context.Context, client backend.Client, def Definition, values Values, options ...submit.Option) (Result, error) {
	return submit.New(client, options...).Submit(ctx, def, "", values, nil, nil)
}

// RestoreDraft loads any saved draft for the form and merges it into the
// current values after the prompt approves.
func RestoreDraft(ctx context.Context, store *draft.Store, def Definition, pageURL string, current Values, prompt draft.RestorePrompt) (Values, bool, error) {
	return store.Restore(ctx, def, pageURL, current, prompt)
}
