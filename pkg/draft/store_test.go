package draft_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/IamBlackShifu/MediTrack/pkg/draft"
	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/storage"
)

const pageURL = "/clinic/receive"

func testDefinition() forms.Definition {
	return forms.Definition{
		ID:       "clinicReceive",
		Resource: "clinicReceives",
		Fields: []forms.Field{
			{Name: "patient_id", Required: true},
			{Name: "sample_id", Required: true},
			{Name: "notes"},
		},
	}
}

type acceptPrompt struct {
	accept bool
	asked  int
	seen   draft.Draft
}

func (p *acceptPrompt) ConfirmRestore(d draft.Draft) (bool, error) {
	p.asked++
	p.seen = d
	return p.accept, nil
}

func TestStoreSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	captured := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	store := draft.NewStore(storage.NewMemory(), draft.WithClock(func() time.Time { return captured }))
	def := testDefinition()

	values := forms.Values{"patient_id": "AB123456", "notes": "cold chain intact"}
	if err := store.Save(ctx, def, pageURL, values); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.Load(ctx, def.ID, pageURL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("draft missing after save")
	}
	want := draft.Draft{
		FormID:     "clinicReceive",
		CapturedAt: captured,
		Values:     values,
		PageURL:    pageURL,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}

	if err := store.Clear(ctx, def.ID, pageURL); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Load(ctx, def.ID, pageURL); ok {
		t.Fatal("draft survived clear")
	}
}

func TestStoreSkipsEmptyForms(t *testing.T) {
	ctx := context.Background()
	store := draft.NewStore(storage.NewMemory())
	def := testDefinition()

	if err := store.Save(ctx, def, pageURL, forms.Values{"patient_id": "  "}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := store.Load(ctx, def.ID, pageURL); ok {
		t.Fatal("empty form should not be persisted")
	}

	// An existing draft must not be overwritten by an empty snapshot.
	if err := store.Save(ctx, def, pageURL, forms.Values{"patient_id": "AB123456"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, def, pageURL, forms.Values{}); err != nil {
		t.Fatalf("empty save: %v", err)
	}
	got, ok, _ := store.Load(ctx, def.ID, pageURL)
	if !ok || got.Values["patient_id"] != "AB123456" {
		t.Fatalf("draft clobbered: %+v (present=%v)", got, ok)
	}
}

func TestStoreKeysByPage(t *testing.T) {
	ctx := context.Background()
	store := draft.NewStore(storage.NewMemory())
	def := testDefinition()

	if err := store.Save(ctx, def, "/clinic/receive", forms.Values{"patient_id": "AB111111"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, def, "/clinic/intake", forms.Values{"patient_id": "AB222222"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, _ := store.Load(ctx, def.ID, "/clinic/receive")
	if !ok || got.Values["patient_id"] != "AB111111" {
		t.Fatalf("wrong draft for page: %+v", got)
	}

	drafts, err := store.List(ctx, def.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}
}

func TestRestoreAccepted(t *testing.T) {
	ctx := context.Background()
	store := draft.NewStore(storage.NewMemory())
	def := testDefinition()

	saved := forms.Values{"patient_id": "AB123456", "sample_id": "AB123456-01"}
	if err := store.Save(ctx, def, pageURL, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	prompt := &acceptPrompt{accept: true}
	// The user already typed a sample id; the restore must not replace it.
	current := forms.Values{"sample_id": "AB999999-07"}
	merged, applied, err := store.Restore(ctx, def, pageURL, current, prompt)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !applied {
		t.Fatal("draft should have been applied")
	}
	if prompt.asked != 1 {
		t.Fatalf("prompt asked %d times, want 1", prompt.asked)
	}
	want := forms.Values{"patient_id": "AB123456", "sample_id": "AB999999-07"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged values mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreDeclinedDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	store := draft.NewStore(storage.NewMemory())
	def := testDefinition()

	if err := store.Save(ctx, def, pageURL, forms.Values{"patient_id": "AB123456"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	prompt := &acceptPrompt{accept: false}
	current := forms.Values{}
	merged, applied, err := store.Restore(ctx, def, pageURL, current, prompt)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if applied {
		t.Fatal("declined draft must not be applied")
	}
	if len(merged) != 0 {
		t.Fatalf("values changed on decline: %v", merged)
	}
	if _, ok, _ := store.Load(ctx, def.ID, pageURL); ok {
		t.Fatal("declined draft should be discarded")
	}
}

func TestRestoreWithoutDraft(t *testing.T) {
	ctx := context.Background()
	store := draft.NewStore(storage.NewMemory())
	def := testDefinition()

	prompt := &acceptPrompt{accept: true}
	_, applied, err := store.Restore(ctx, def, pageURL, forms.Values{}, prompt)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if applied || prompt.asked != 0 {
		t.Fatalf("nothing to restore: applied=%v asked=%d", applied, prompt.asked)
	}
}

func TestLoadDiscardsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	store := draft.NewStore(kv, draft.WithPrefix("d|"))

	if err := kv.Set(ctx, "d|clinicReceive|"+pageURL, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, ok, err := store.Load(ctx, "clinicReceive", pageURL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("corrupt draft reported as present")
	}
	if _, err := kv.Get(ctx, "d|clinicReceive|"+pageURL); err == nil {
		t.Fatal("corrupt record should be removed")
	}
}
