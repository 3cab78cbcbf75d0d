package forms

import "strings"

// InputType is the simplified enum of form-friendly field kinds.
type InputType string

const (
	InputText     InputType = "text"
	InputEmail    InputType = "email"
	InputPhone    InputType = "tel"
	InputNumber   InputType = "number"
	InputDate     InputType = "date"
	InputTime     InputType = "time"
	InputCheckbox InputType = "checkbox"
	InputSelect   InputType = "select"
	InputTextarea InputType = "textarea"
	InputFile     InputType = "file"
)

// Field describes an individual input inside an intake form. Rules name
// rule registry entries; `required` is carried as its own flag. Column maps
// the field onto its backend column and defaults to the field name.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Label       string    `yaml:"label,omitempty" json:"label,omitempty"`
	Input       InputType `yaml:"input,omitempty" json:"input,omitempty"`
	Required    bool      `yaml:"required,omitempty" json:"required"`
	Rules       []string  `yaml:"rules,omitempty" json:"rules,omitempty"`
	Column      string    `yaml:"column,omitempty" json:"column,omitempty"`
	Default     string    `yaml:"default,omitempty" json:"default,omitempty"`
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Placeholder string    `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Help        string    `yaml:"help,omitempty" json:"help,omitempty"`
	// FreeText marks fields whose values are sanitized before payload
	// assembly (notes, descriptions). Structured identifiers are left alone.
	FreeText bool `yaml:"freeText,omitempty" json:"freeText,omitempty"`
}

// ColumnName returns the backend column the field maps onto.
func (f Field) ColumnName() string {
	if strings.TrimSpace(f.Column) != "" {
		return f.Column
	}
	return f.Name
}

// CrossCheckKind enumerates the supported cross-field checks.
type CrossCheckKind string

const (
	// CrossCheckDateOrder requires First's date to be on or before Second's.
	CrossCheckDateOrder CrossCheckKind = "date-order"
	// CrossCheckTimeOrder requires First's time to be at or before Second's.
	CrossCheckTimeOrder CrossCheckKind = "time-order"
	// CrossCheckIDPrefix requires Second to start with the first three
	// characters of First when both are present.
	CrossCheckIDPrefix CrossCheckKind = "id-prefix"
)

// CrossCheck declares a correlation between two fields, evaluated by the form
// validator after all per-field validation completes.
type CrossCheck struct {
	Kind    CrossCheckKind `yaml:"kind" json:"kind"`
	First   string         `yaml:"first" json:"first"`
	Second  string         `yaml:"second" json:"second"`
	Message string         `yaml:"message,omitempty" json:"message,omitempty"`
}

// Definition is the top-level description of one intake form: its fields,
// cross-field checks, the logical backend resource it submits to, and the
// post-submit behaviour.
type Definition struct {
	ID          string       `yaml:"id" json:"id"`
	Title       string       `yaml:"title,omitempty" json:"title,omitempty"`
	Resource    string       `yaml:"resource" json:"resource"`
	Fields      []Field      `yaml:"fields" json:"fields"`
	CrossChecks []CrossCheck `yaml:"crossChecks,omitempty" json:"crossChecks,omitempty"`

	// ResetOnSuccess clears the form after a successful submission.
	ResetOnSuccess bool `yaml:"resetOnSuccess,omitempty" json:"resetOnSuccess,omitempty"`
	// RedirectURL, when set, is surfaced to the UI edge after success.
	RedirectURL string `yaml:"redirectUrl,omitempty" json:"redirectUrl,omitempty"`
	// ReceiptTemplate renders the success notification; it receives `id` and
	// `resource` in its context. Empty means the default receipt message.
	ReceiptTemplate string `yaml:"receiptTemplate,omitempty" json:"receiptTemplate,omitempty"`
}

// Field returns the named field.
func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns maps field names to backend column names.
func (d Definition) Columns() map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		out[f.Name] = f.ColumnName()
	}
	return out
}

// HasFileFields reports whether the form carries any file inputs.
func (d Definition) HasFileFields() bool {
	for _, f := range d.Fields {
		if f.Input == InputFile {
			return true
		}
	}
	return false
}

// Values holds a form's current field values keyed by field name. Checkboxes
// are carried as "true"/"false" strings, mirroring how the original snapshots
// serialized them.
type Values map[string]string

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Empty reports whether no field holds a non-default value. Checkbox "false"
// counts as default.
func (v Values) Empty(def Definition) bool {
	for _, f := range def.Fields {
		value, ok := v[f.Name]
		if !ok {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		if value == f.Default {
			continue
		}
		if f.Input == InputCheckbox && value == "false" {
			continue
		}
		return false
	}
	return true
}
