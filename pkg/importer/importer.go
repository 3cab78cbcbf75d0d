// Package importer bulk-loads stock records from CSV exports. Every row is
// validated before the first network call, so a bad file is rejected without
// writing a partial batch.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/IamBlackShifu/MediTrack/pkg/backend"
	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/submit"
	"github.com/IamBlackShifu/MediTrack/pkg/validation"
)

// ErrNoRows is returned when the file parses but contains no data rows.
var ErrNoRows = errors.New("importer: no data rows found")

// ErrValidationFailed is returned when any row fails validation; nothing is
// submitted in that case.
var ErrValidationFailed = errors.New("importer: validation failed")

// DefaultStockDefinition is the built-in pharmacy stock form used when no
// external definition is supplied.
func DefaultStockDefinition() forms.Definition {
	return forms.Definition{
		ID:       "pharmacyStock",
		Title:    "Record Stock",
		Resource: "pharmacyStocks",
		Fields: []forms.Field{
			{Name: "medicine", Label: "Medicine", Required: true, Rules: []string{"min-length:2"}},
			{Name: "availability", Label: "Available", Input: forms.InputCheckbox},
			{Name: "datestocked", Label: "Date Stocked", Required: true, Input: forms.InputDate, Rules: []string{"date"}},
		},
	}
}

// Config maps CSV columns onto the stock form.
type Config struct {
	// Definition is the form rows are validated against and submitted as.
	Definition forms.Definition
	// NameColumn, AvailabilityColumn, and DateColumn name the required CSV
	// headers and the definition fields they feed. They default to medicine,
	// availability, and datestocked, matching DefaultStockDefinition.
	NameColumn         string
	AvailabilityColumn string
	DateColumn         string
	// Delay paces sequential submissions so a large file does not hammer
	// the backend.
	Delay time.Duration
}

func (c Config) nameColumn() string {
	if c.NameColumn == "" {
		return "medicine"
	}
	return c.NameColumn
}

func (c Config) availabilityColumn() string {
	if c.AvailabilityColumn == "" {
		return "availability"
	}
	return c.AvailabilityColumn
}

func (c Config) dateColumn() string {
	if c.DateColumn == "" {
		return "datestocked"
	}
	return c.DateColumn
}

// RowError ties a failure to its line in the file.
type RowError struct {
	Line    int
	Message string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Summary reports what an import did.
type Summary struct {
	Total      int
	Successful int
	Failed     int
	Errors     []RowError
}

// Importer validates and submits CSV batches.
type Importer struct {
	client    backend.Client
	validator *validation.FormValidator
	config    Config
	logger    *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithImportValidator overrides the row validator.
func WithImportValidator(v *validation.FormValidator) ImporterOption {
	return func(i *Importer) {
		if v != nil {
			i.validator = v
		}
	}
}

// WithImportLogger overrides the logger.
func WithImportLogger(logger *slog.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New builds an Importer submitting through client.
func New(client backend.Client, config Config, opts ...ImporterOption) *Importer {
	i := &Importer{
		client:    client,
		validator: validation.NewFormValidator(nil),
		config:    config,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import parses, validates, and submits the batch. If any row fails parsing
// or validation the whole batch is rejected before the first submission, and
// the summary's Errors name each offending line.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return Summary{}, err
	}
	if len(rows) == 0 {
		return Summary{}, ErrNoRows
	}

	summary := Summary{Total: len(rows)}

	values := make([]forms.Values, 0, len(rows))
	for _, row := range rows {
		converted, errs := i.convertRow(row)
		if len(errs) > 0 {
			summary.Errors = append(summary.Errors, errs...)
			continue
		}
		values = append(values, converted)
	}
	if len(summary.Errors) > 0 {
		summary.Failed = summary.Total
		return summary, ErrValidationFailed
	}

	for n, rowValues := range values {
		if n > 0 && i.config.Delay > 0 {
			if err := sleep(ctx, i.config.Delay); err != nil {
				summary.Failed = summary.Total - summary.Successful
				return summary, err
			}
		}

		payload, err := submit.BuildPayload(i.config.Definition, rowValues)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Line: rows[n].Line, Message: err.Error()})
			continue
		}
		if _, err := i.client.Insert(ctx, i.config.Definition.Resource, payload); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Line: rows[n].Line, Message: err.Error()})
			i.logger.Warn("import row failed",
				slog.Int("line", rows[n].Line),
				slog.Any("error", err))
			continue
		}
		summary.Successful++
	}

	i.logger.Info("import finished",
		slog.Int("total", summary.Total),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

// convertRow maps one CSV row into form values and validates it.
func (i *Importer) convertRow(row Row) (forms.Values, []RowError) {
	var errs []RowError

	required := []string{i.config.nameColumn(), i.config.availabilityColumn(), i.config.dateColumn()}
	for _, column := range required {
		if _, ok := row.Values[column]; !ok {
			errs = append(errs, RowError{Line: row.Line, Message: fmt.Sprintf("missing column %q", column)})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	available, err := ParseAvailability(row.Values[i.config.availabilityColumn()])
	if err != nil {
		errs = append(errs, RowError{Line: row.Line, Message: err.Error()})
	}

	values := forms.Values{
		i.config.nameColumn():         row.Values[i.config.nameColumn()],
		i.config.availabilityColumn(): strconv.FormatBool(available),
		i.config.dateColumn():         row.Values[i.config.dateColumn()],
	}

	result, verr := i.validator.Validate(i.config.Definition, values)
	if verr != nil {
		errs = append(errs, RowError{Line: row.Line, Message: verr.Error()})
		return nil, errs
	}
	if !result.Valid {
		for _, message := range result.Errors {
			errs = append(errs, RowError{Line: row.Line, Message: message})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
