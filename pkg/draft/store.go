package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/storage"
)

const defaultPrefix = "meditrack.drafts|"

// RestorePrompt asks the user whether a found draft should be restored.
// Declining discards the draft.
type RestorePrompt interface {
	ConfirmRestore(d Draft) (bool, error)
}

// Store persists drafts through a KV backend.
type Store struct {
	kv     storage.KV
	prefix string
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPrefix overrides the key namespace, for tests or multi-tenant stores.
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore builds a draft store over the given KV.
func NewStore(kv storage.KV, opts ...StoreOption) *Store {
	s := &Store{kv: kv, prefix: defaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(formID, pageURL string) string {
	return s.prefix + formID + "|" + pageURL
}

// Save snapshots the current values. A form with no meaningful input is
// skipped so an untouched page never shadows an earlier draft.
func (s *Store) Save(ctx context.Context, def forms.Definition, pageURL string, values forms.Values) error {
	if values.Empty(def) {
		return nil
	}

	d := Draft{
		FormID:     def.ID,
		CapturedAt: s.now().UTC(),
		Values:     values.Clone(),
		PageURL:    pageURL,
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft: encode %q: %w", def.ID, err)
	}
	if err := s.kv.Set(ctx, s.key(def.ID, pageURL), data); err != nil {
		return fmt.Errorf("draft: save %q: %w", def.ID, err)
	}
	return nil
}

// Load fetches the draft for a form on a given page. The boolean reports
// whether one existed; a corrupt record is discarded and reported as absent.
func (s *Store) Load(ctx context.Context, formID, pageURL string) (Draft, bool, error) {
	data, err := s.kv.Get(ctx, s.key(formID, pageURL))
	if errors.Is(err, storage.ErrNotFound) {
		return Draft{}, false, nil
	}
	if err != nil {
		return Draft{}, false, fmt.Errorf("draft: load %q: %w", formID, err)
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		_ = s.kv.Remove(ctx, s.key(formID, pageURL))
		return Draft{}, false, nil
	}
	return d, true, nil
}

// Clear removes the draft for a form on a given page.
func (s *Store) Clear(ctx context.Context, formID, pageURL string) error {
	if err := s.kv.Remove(ctx, s.key(formID, pageURL)); err != nil {
		return fmt.Errorf("draft: clear %q: %w", formID, err)
	}
	return nil
}

// List returns every stored draft for the form, across pages.
func (s *Store) List(ctx context.Context, formID string) ([]Draft, error) {
	keys, err := s.kv.Keys(ctx, s.prefix+formID+"|")
	if err != nil {
		return nil, fmt.Errorf("draft: list %q: %w", formID, err)
	}

	drafts := make([]Draft, 0, len(keys))
	for _, key := range keys {
		pageURL := strings.TrimPrefix(key, s.prefix+formID+"|")
		d, ok, err := s.Load(ctx, formID, pageURL)
		if err != nil {
			return nil, err
		}
		if ok {
			drafts = append(drafts, d)
		}
	}
	return drafts, nil
}

// Restore loads the page's draft and, when one exists, asks the prompt
// whether to apply it. Accepted drafts are merged into the current values;
// declined drafts are discarded. The boolean reports whether a draft was
// applied.
func (s *Store) Restore(ctx context.Context, def forms.Definition, pageURL string, current forms.Values, prompt RestorePrompt) (forms.Values, bool, error) {
	d, ok, err := s.Load(ctx, def.ID, pageURL)
	if err != nil || !ok {
		return current, false, err
	}

	accept := true
	if prompt != nil {
		accept, err = prompt.ConfirmRestore(d)
		if err != nil {
			return current, false, fmt.Errorf("draft: restore prompt: %w", err)
		}
	}
	if !accept {
		if err := s.Clear(ctx, def.ID, pageURL); err != nil {
			return current, false, err
		}
		return current, false, nil
	}
	return d.Apply(def, current), true, nil
}
