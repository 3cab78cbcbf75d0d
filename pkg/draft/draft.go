// Package draft persists partially completed form entries so an interrupted
// session can be resumed. Drafts are keyed by form id and page URL, saved on
// a timer while the user types, and cleared on successful submission.
package draft

import (
	"time"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
)

// Draft is one saved snapshot of a form's values.
type Draft struct {
	FormID     string       `json:"formId"`
	CapturedAt time.Time    `json:"capturedAt"`
	Values     forms.Values `json:"fieldValues"`
	PageURL    string       `json:"pageUrl"`
}

// Age reports how long ago the draft was captured.
func (d Draft) Age(now time.Time) time.Duration {
	return now.Sub(d.CapturedAt)
}

// Apply fills values into the form, skipping fields the user has already
// populated so a restore never clobbers fresh input.
func (d Draft) Apply(def forms.Definition, current forms.Values) forms.Values {
	merged := current.Clone()
	if merged == nil {
		merged = forms.Values{}
	}
	for _, field := range def.Fields {
		saved, ok := d.Values[field.Name]
		if !ok || saved == "" {
			continue
		}
		if existing := merged[field.Name]; existing != "" && existing != field.Default {
			continue
		}
		merged[field.Name] = saved
	}
	return merged
}
