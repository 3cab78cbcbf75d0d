package forms_test

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
)

const clinicYAML = `
id: clinicReceive
title: Clinic Receive
resource: clinicReceives
fields:
  - name: patient_id
    label: Patient ID
    required: true
    rules: [patient-id]
  - name: sample_id
    required: true
    rules: ["min-length:4"]
  - name: collection_date
    input: date
    rules: [date]
  - name: processing_date
    input: date
    rules: [date]
  - name: notes
    input: textarea
    freeText: true
crossChecks:
  - kind: date-order
    first: collection_date
    second: processing_date
  - kind: id-prefix
    first: patient_id
    second: sample_id
`

func TestParseSingleDefinition(t *testing.T) {
	defs, err := forms.Parse([]byte(clinicYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}

	def := defs[0]
	if def.ID != "clinicReceive" || def.Resource != "clinicReceives" {
		t.Fatalf("unexpected header: %+v", def)
	}
	if got, want := len(def.Fields), 5; got != want {
		t.Fatalf("got %d fields, want %d", got, want)
	}

	// Unspecified input types default to text.
	field, ok := def.Field("patient_id")
	if !ok || field.Input != forms.InputText {
		t.Fatalf("patient_id input = %q", field.Input)
	}

	wantColumns := map[string]string{
		"patient_id":      "patient_id",
		"sample_id":       "sample_id",
		"collection_date": "collection_date",
		"processing_date": "processing_date",
		"notes":           "notes",
	}
	if diff := cmp.Diff(wantColumns, def.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsBrokenDefinitions(t *testing.T) {
	cases := map[string]string{
		"missing resource": "id: x\nfields:\n  - name: a\n",
		"no fields":        "id: x\nresource: r\n",
		"duplicate field":  "id: x\nresource: r\nfields:\n  - name: a\n  - name: a\n",
		"bad cross check":  "id: x\nresource: r\nfields:\n  - name: a\ncrossChecks:\n  - kind: date-order\n    first: a\n    second: missing\n",
		"bad check kind":   "id: x\nresource: r\nfields:\n  - name: a\n  - name: b\ncrossChecks:\n  - kind: sideways\n    first: a\n    second: b\n",
	}
	for name, doc := range cases {
		if _, err := forms.Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"clinic.yaml": &fstest.MapFile{Data: []byte(clinicYAML)},
		"stock.yml": &fstest.MapFile{Data: []byte(
			"id: pharmacyStock\nresource: pharmacyStocks\nfields:\n  - name: medicine\n    required: true\n",
		)},
		"notes.txt": &fstest.MapFile{Data: []byte("ignored")},
	}

	set, err := forms.LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"clinicReceive", "pharmacyStock"}
	if diff := cmp.Diff(want, set.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := set.Get("pharmacyStock"); !ok {
		t.Fatal("pharmacyStock not found")
	}
}

func TestLoadFSRejectsDuplicates(t *testing.T) {
	doc := "id: same\nresource: r\nfields:\n  - name: a\n"
	fsys := fstest.MapFS{
		"one.yaml": &fstest.MapFile{Data: []byte(doc)},
		"two.yaml": &fstest.MapFile{Data: []byte(doc)},
	}
	if _, err := forms.LoadFS(fsys); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestValuesEmpty(t *testing.T) {
	defs, err := forms.Parse([]byte(clinicYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def := defs[0]

	if !(forms.Values{}).Empty(def) {
		t.Fatal("no values should be empty")
	}
	if !(forms.Values{"patient_id": "   "}).Empty(def) {
		t.Fatal("whitespace-only value should be empty")
	}
	if (forms.Values{"patient_id": "AB123456"}).Empty(def) {
		t.Fatal("populated form reported empty")
	}
}
