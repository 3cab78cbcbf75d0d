package importer_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/importer"
	"github.com/IamBlackShifu/MediTrack/pkg/testsupport"
)

const goodCSV = `Medicine,Availability,DateStocked
Amoxicillin,true,2026-08-01
Paracetamol,no,2026-08-02
Ibuprofen,1,2026-08-03
`

func stockImporter(client *testsupport.FakeBackend, delay time.Duration) *importer.Importer {
	return importer.New(client, importer.Config{
		Definition: testsupport.PharmacyStockDefinition(),
		Delay:      delay,
	})
}

func TestParseCSV(t *testing.T) {
	rows, err := importer.ParseCSV(strings.NewReader(goodCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	want := map[string]string{
		"medicine":     "Amoxicillin",
		"availability": "true",
		"datestocked":  "2026-08-01",
	}
	if diff := cmp.Diff(want, rows[0].Values); diff != "" {
		t.Fatalf("first row mismatch (-want +got):\n%s", diff)
	}
	if rows[0].Line != 2 {
		t.Fatalf("first data row line = %d, want 2", rows[0].Line)
	}
}

func TestParseCSVSkipsRaggedRows(t *testing.T) {
	raw := "medicine,availability,datestocked\nAmoxicillin,true,2026-08-01\nshort,row\n"
	rows, err := importer.ParseCSV(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	if _, err := importer.ParseCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestParseAvailability(t *testing.T) {
	truthy := []string{"true", "TRUE", "1", "yes", "Yes"}
	for _, token := range truthy {
		got, err := importer.ParseAvailability(token)
		if err != nil || !got {
			t.Errorf("ParseAvailability(%q) = %v, %v; want true", token, got, err)
		}
	}
	falsy := []string{"false", "FALSE", "0", "no", "No"}
	for _, token := range falsy {
		got, err := importer.ParseAvailability(token)
		if err != nil || got {
			t.Errorf("ParseAvailability(%q) = %v, %v; want false", token, got, err)
		}
	}
	if _, err := importer.ParseAvailability("maybe"); err == nil {
		t.Error("ParseAvailability(maybe) should fail")
	}
}

func TestImportSubmitsEveryRow(t *testing.T) {
	client := testsupport.NewFakeBackend()
	imp := stockImporter(client, 0)

	summary, err := imp.Import(context.Background(), strings.NewReader(goodCSV))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Total != 3 || summary.Successful != 3 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	inserted := client.Inserted()
	if len(inserted) != 3 {
		t.Fatalf("inserts = %d, want 3", len(inserted))
	}
	first := inserted[0].Record
	if first["medicine"] != "Amoxicillin" || first["availability"] != true {
		t.Fatalf("first record = %v", first)
	}
	second := inserted[1].Record
	if second["availability"] != false {
		t.Fatalf("no token should map to false: %v", second)
	}
}

func TestImportWithCustomDefinition(t *testing.T) {
	def := forms.Definition{
		ID:       "wardStock",
		Resource: "wardStocks",
		Fields: []forms.Field{
			{Name: "item", Required: true},
			{Name: "in_stock", Input: forms.InputCheckbox},
			{Name: "stocked_on", Required: true, Input: forms.InputDate, Rules: []string{"date"}},
		},
	}
	client := testsupport.NewFakeBackend()
	imp := importer.New(client, importer.Config{
		Definition:         def,
		NameColumn:         "item",
		AvailabilityColumn: "in_stock",
		DateColumn:         "stocked_on",
	})

	csv := "item,in_stock,stocked_on\nGauze,yes,2026-08-10\n"
	summary, err := imp.Import(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Successful != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	record := client.Inserted()[0].Record
	if record["item"] != "Gauze" || record["in_stock"] != true {
		t.Fatalf("record = %v", record)
	}
}

func TestImportAbortsBeforeNetworkOnBadRow(t *testing.T) {
	client := testsupport.NewFakeBackend()
	imp := stockImporter(client, 0)

	bad := "medicine,availability,datestocked\nAmoxicillin,true,2026-08-01\nParacetamol,maybe,2026-08-02\n"
	summary, err := imp.Import(context.Background(), strings.NewReader(bad))
	if !errors.Is(err, importer.ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if len(client.Inserted()) != 0 {
		t.Fatal("a bad batch must never reach the backend")
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Line != 3 {
		t.Fatalf("errors = %v", summary.Errors)
	}
}

func TestImportRejectsMissingColumns(t *testing.T) {
	client := testsupport.NewFakeBackend()
	imp := stockImporter(client, 0)

	noDate := "medicine,availability\nAmoxicillin,true\n"
	_, err := imp.Import(context.Background(), strings.NewReader(noDate))
	if !errors.Is(err, importer.ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if len(client.Inserted()) != 0 {
		t.Fatal("nothing should be submitted")
	}
}

func TestImportCountsBackendFailures(t *testing.T) {
	client := testsupport.NewFakeBackend()
	client.FailWith(errors.New("connection refused"), 1)
	imp := stockImporter(client, 0)

	summary, err := imp.Import(context.Background(), strings.NewReader(goodCSV))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Successful != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors = %v", summary.Errors)
	}
}

func TestImportHonorsContextBetweenRows(t *testing.T) {
	client := testsupport.NewFakeBackend()
	imp := stockImporter(client, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := imp.Import(ctx, strings.NewReader(goodCSV))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := len(client.Inserted()); got != 1 {
		t.Fatalf("inserts = %d, want 1 before cancellation", got)
	}
}

func TestImportValidatesDates(t *testing.T) {
	client := testsupport.NewFakeBackend()
	imp := stockImporter(client, 0)

	bad := "medicine,availability,datestocked\nAmoxicillin,true,sometime\n"
	summary, err := imp.Import(context.Background(), strings.NewReader(bad))
	if !errors.Is(err, importer.ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if summary.Failed != summary.Total {
		t.Fatalf("summary = %+v", summary)
	}
}
