// Package submit drives a validated form through payload assembly, file
// uploads, and the backend write, with one submission in flight at a time.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/IamBlackShifu/MediTrack/pkg/backend"
	"github.com/IamBlackShifu/MediTrack/pkg/draft"
	"github.com/IamBlackShifu/MediTrack/pkg/faults"
	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/notify"
	"github.com/IamBlackShifu/MediTrack/pkg/retry"
	"github.com/IamBlackShifu/MediTrack/pkg/validation"
)

// ErrSubmissionInProgress is returned when a submit lands while another is
// still running. Double clicks are the whole reason this exists.
var ErrSubmissionInProgress = errors.New("submit: a submission is already in progress")

// ErrValidationFailed is returned when the form does not pass validation;
// nothing touches the network in that case.
var ErrValidationFailed = errors.New("submit: validation failed")

// FormUI is the surface the orchestrator drives while a submission runs.
// Every method must be safe to call when the UI element no longer exists.
type FormUI interface {
	DisableSubmit()
	EnableSubmit()
	ShowBusy(message string)
	HideBusy()
	FocusField(name string)
	ResetForm()
}

// NopUI satisfies FormUI for headless callers like the bulk importer.
type NopUI struct{}

func (NopUI) DisableSubmit()    {}
func (NopUI) EnableSubmit()     {}
func (NopUI) ShowBusy(string)   {}
func (NopUI) HideBusy()         {}
func (NopUI) FocusField(string) {}
func (NopUI) ResetForm()        {}

// Result is the outcome of one submission attempt. Redirect carries the
// definition's post-success destination for the UI edge to act on.
type Result struct {
	Record     backend.Record
	Validation validation.FormResult
	Receipt    string
	Redirect   string
}

// Orchestrator owns the submit pipeline for all forms.
type Orchestrator struct {
	validator *validation.FormValidator
	client    backend.Client
	uploader  backend.Uploader
	progress  backend.ProgressFunc
	drafts    *draft.Store
	notifier  notify.Notifier
	handler   *faults.Handler
	policy    retry.Policy
	logger    *slog.Logger
	bucket    string

	inFlight atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithValidator overrides the form validator.
func WithValidator(v *validation.FormValidator) Option {
	return func(o *Orchestrator) {
		if v != nil {
			o.validator = v
		}
	}
}

// WithUploader enables file fields, storing attachments in bucket.
func WithUploader(u backend.Uploader, bucket string) Option {
	return func(o *Orchestrator) {
		o.uploader = u
		o.bucket = bucket
	}
}

// WithUploadProgress reports per-file upload progress, for a progress bar or
// busy text next to the form.
func WithUploadProgress(fn backend.ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithDrafts clears the page's draft after a successful submission.
func WithDrafts(store *draft.Store) Option {
	return func(o *Orchestrator) { o.drafts = store }
}

// WithNotifier routes outcome messages through n.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithFaultHandler routes failures through h and uses its category policies
// to decide what is retryable.
func WithFaultHandler(h *faults.Handler) Option {
	return func(o *Orchestrator) { o.handler = h }
}

// WithRetryPolicy overrides the backend write retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithSubmitLogger overrides the logger.
func WithSubmitLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New builds an Orchestrator over a backend client.
func New(client backend.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		validator: validation.NewFormValidator(nil),
		client:    client,
		logger:    slog.Default(),
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.ExponentialBackoff(500*time.Millisecond, 5*time.Second),
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.handler != nil && o.policy.Retryable == nil {
		o.policy.Retryable = o.handler.Retryable
	}
	return o
}

// Submit runs the full pipeline for one form. Files are keyed by the file
// field they belong to. The ui may be NopUI for headless use.
func (o *Orchestrator) Submit(ctx context.Context, def forms.Definition, pageURL string, values forms.Values, files map[string]backend.File, ui FormUI) (Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrSubmissionInProgress
	}
	defer o.inFlight.Store(false)

	if ui == nil {
		ui = NopUI{}
	}
	ui.DisableSubmit()
	defer ui.EnableSubmit()

	formResult, err := o.validator.Validate(def, values)
	if err != nil {
		return Result{}, o.fail(ctx, def, err)
	}
	if !formResult.Valid {
		if formResult.FirstInvalid != "" {
			ui.FocusField(formResult.FirstInvalid)
		}
		if o.notifier != nil {
			notify.Warning(o.notifier, "", firstError(formResult))
		}
		return Result{Validation: formResult}, ErrValidationFailed
	}
	for _, warning := range formResult.Warnings() {
		if o.notifier != nil {
			notify.Warning(o.notifier, "", warning)
		}
	}

	payload, err := BuildPayload(def, values)
	if err != nil {
		return Result{Validation: formResult}, o.fail(ctx, def, err)
	}

	ui.ShowBusy("Submitting…")
	defer ui.HideBusy()

	if err := o.uploadFiles(ctx, def, files, payload); err != nil {
		return Result{Validation: formResult}, o.fail(ctx, def, err)
	}

	var stored backend.Record
	err = retry.Do(ctx, o.policy, func(ctx context.Context) error {
		var insertErr error
		stored, insertErr = o.client.Insert(ctx, def.Resource, payload)
		return insertErr
	})
	if err != nil {
		// The draft survives so nothing typed is lost.
		return Result{Validation: formResult}, o.fail(ctx, def, err)
	}

	o.logger.Info("record submitted",
		slog.String("form", def.ID),
		slog.String("resource", def.Resource))

	if o.drafts != nil {
		if err := o.drafts.Clear(ctx, def.ID, pageURL); err != nil {
			o.logger.Warn("draft not cleared after submit", slog.Any("error", err))
		}
	}
	if def.ResetOnSuccess {
		ui.ResetForm()
	}

	receipt := o.receipt(def, values, stored)
	if o.notifier != nil {
		notify.Success(o.notifier, "Saved", receipt)
	}
	return Result{
		Record:     stored,
		Validation: formResult,
		Receipt:    receipt,
		Redirect:   def.RedirectURL,
	}, nil
}

func (o *Orchestrator) uploadFiles(ctx context.Context, def forms.Definition, files map[string]backend.File, payload backend.Record) error {
	if len(files) == 0 {
		return nil
	}
	if o.uploader == nil {
		return fmt.Errorf("submit: form %q has files but no uploader is configured", def.ID)
	}

	for _, field := range def.Fields {
		file, ok := files[field.Name]
		if !ok {
			continue
		}
		if field.Input != forms.InputFile {
			return fmt.Errorf("submit: field %q is not a file field", field.Name)
		}
		ref, err := o.uploader.Upload(ctx, o.bucket, file, o.progress)
		if err != nil {
			return fmt.Errorf("submit: upload %q: %w", file.Name, err)
		}
		payload[field.ColumnName()] = ref.URL
	}
	return nil
}

func (o *Orchestrator) receipt(def forms.Definition, values forms.Values, stored backend.Record) string {
	template := def.ReceiptTemplate
	if template == "" {
		return "Submission saved"
	}
	data := make(map[string]any, len(values)+2)
	for name, value := range values {
		data[name] = value
	}
	if id, ok := stored["id"]; ok {
		data["id"] = id
	}
	data["resource"] = def.Resource
	return notify.Receipt(template, data)
}

// fail funnels an error through the fault handler (when configured) and
// returns the normalized fault so callers see the same error the user did.
func (o *Orchestrator) fail(ctx context.Context, def forms.Definition, err error) error {
	if o.handler == nil {
		o.logger.Error("submission failed",
			slog.String("form", def.ID),
			slog.Any("error", err))
		return err
	}
	return o.handler.Handle(ctx, err).WithContext("form", def.ID)
}

func firstError(result validation.FormResult) string {
	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return "Some fields need attention before submitting."
}
