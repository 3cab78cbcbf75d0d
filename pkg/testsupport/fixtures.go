// Package testsupport provides shared fixtures and fakes for exercising the
// intake pipeline without a real backend or UI.
package testsupport

import (
	"context"
	"sync"

	"github.com/IamBlackShifu/MediTrack/pkg/backend"
	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/importer"
	"github.com/IamBlackShifu/MediTrack/pkg/notify"
)

// ClinicReceiveDefinition is the sample-intake form used across tests.
func ClinicReceiveDefinition() forms.Definition {
	return forms.Definition{
		ID:       "clinicReceive",
		Title:    "Receive Sample",
		Resource: "clinicReceives",
		Fields: []forms.Field{
			{Name: "patient_id", Label: "Patient ID", Required: true, Rules: []string{"patient-id"}},
			{Name: "sample_id", Label: "Sample ID", Required: true, Rules: []string{"min-length:4"}},
			{Name: "collection_date", Label: "Collection Date", Input: forms.InputDate, Rules: []string{"date"}},
			{Name: "processing_date", Label: "Processing Date", Input: forms.InputDate, Rules: []string{"date"}},
			{Name: "notes", Label: "Notes", Input: forms.InputTextarea, FreeText: true},
		},
		CrossChecks: []forms.CrossCheck{
			{Kind: forms.CrossCheckDateOrder, First: "collection_date", Second: "processing_date"},
		},
		ResetOnSuccess:  true,
		ReceiptTemplate: "Sample {{ sample_id }} recorded",
	}
}

// PharmacyStockDefinition is the stock-entry form used across tests,
// matching the bulk importer's column layout.
func PharmacyStockDefinition() forms.Definition {
	return importer.DefaultStockDefinition()
}

// Insertion is one recorded FakeBackend insert.
type Insertion struct {
	Resource string
	Record   backend.Record
}

// FakeBackend is an in-memory backend.Client that records calls and can be
// primed to fail.
type FakeBackend struct {
	mu        sync.Mutex
	inserted  []Insertion
	nextID    int
	failTimes int
	failWith  error
}

// NewFakeBackend returns an empty fake.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

// FailWith makes the next n Insert calls return err.
func (f *FakeBackend) FailWith(err error, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
	f.failTimes = n
}

// Inserted returns a copy of every recorded insert.
func (f *FakeBackend) Inserted() []Insertion {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Insertion, len(f.inserted))
	copy(out, f.inserted)
	return out
}

func (f *FakeBackend) Insert(ctx context.Context, resource string, record backend.Record) (backend.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTimes > 0 {
		f.failTimes--
		return nil, f.failWith
	}

	stored := make(backend.Record, len(record)+1)
	for k, v := range record {
		stored[k] = v
	}
	f.nextID++
	stored["id"] = f.nextID
	f.inserted = append(f.inserted, Insertion{Resource: resource, Record: stored})
	return stored, nil
}

func (f *FakeBackend) Select(ctx context.Context, resource string, filters ...backend.Filter) ([]backend.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []backend.Record
	for _, ins := range f.inserted {
		if ins.Resource != resource {
			continue
		}
		match := true
		for _, filter := range filters {
			value, ok := ins.Record[filter.Column].(string)
			if !ok || value != filter.Value {
				match = false
				break
			}
		}
		if match {
			out = append(out, ins.Record)
		}
	}
	return out, nil
}

func (f *FakeBackend) Update(ctx context.Context, resource string, filters []backend.Filter, record backend.Record) ([]backend.Record, error) {
	return nil, nil
}

func (f *FakeBackend) Delete(ctx context.Context, resource string, filters ...backend.Filter) error {
	return nil
}

// FakeNotifier records every toast and modal.
type FakeNotifier struct {
	mu     sync.Mutex
	Toasts []notify.Notification
	Modals []notify.Modal
	Pick   notify.Action
}

func (f *FakeNotifier) Toast(n notify.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Toasts = append(f.Toasts, n)
}

func (f *FakeNotifier) Modal(m notify.Modal) (notify.Action, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Modals = append(f.Modals, m)
	return f.Pick, nil
}

// LastToast returns the most recent toast, if any.
func (f *FakeNotifier) LastToast() (notify.Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Toasts) == 0 {
		return notify.Notification{}, false
	}
	return f.Toasts[len(f.Toasts)-1], true
}

// FakeUI records orchestrator UI calls. It satisfies submit.FormUI.
type FakeUI struct {
	Disabled int
	Enabled  int
	Busy     int
	Idle     int
	Focused  []string
	Resets   int
}

func (f *FakeUI) DisableSubmit() { f.Disabled++ }
func (f *FakeUI) EnableSubmit()  { f.Enabled++ }
func (f *FakeUI) ShowBusy(string) {
	f.Busy++
}
func (f *FakeUI) HideBusy() { f.Idle++ }
func (f *FakeUI) FocusField(name string) {
	f.Focused = append(f.Focused, name)
}
func (f *FakeUI) ResetForm() { f.Resets++ }

// FakeUploader returns deterministic refs and records uploads.
type FakeUploader struct {
	mu       sync.Mutex
	Uploaded []string
	Err      error
}

func (f *FakeUploader) Upload(ctx context.Context, bucket string, file backend.File, progress backend.ProgressFunc) (backend.FileRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return backend.FileRef{}, f.Err
	}
	f.Uploaded = append(f.Uploaded, file.Name)
	if progress != nil {
		progress(file.Name, file.Size, file.Size)
	}
	return backend.FileRef{Name: file.Name, URL: "fake://" + bucket + "/" + file.Name}, nil
}
