package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/IamBlackShifu/MediTrack/internal/logging"
	"github.com/IamBlackShifu/MediTrack/internal/prompt"
	"github.com/IamBlackShifu/MediTrack/internal/schema"
	"github.com/IamBlackShifu/MediTrack/pkg/backend"
	"github.com/IamBlackShifu/MediTrack/pkg/draft"
	"github.com/IamBlackShifu/MediTrack/pkg/faults"
	"github.com/IamBlackShifu/MediTrack/pkg/forms"
	"github.com/IamBlackShifu/MediTrack/pkg/importer"
	"github.com/IamBlackShifu/MediTrack/pkg/notify"
	"github.com/IamBlackShifu/MediTrack/pkg/rules"
	"github.com/IamBlackShifu/MediTrack/pkg/storage"
	"github.com/IamBlackShifu/MediTrack/pkg/submit"
	"github.com/IamBlackShifu/MediTrack/pkg/validation"
)

const usage = `usage: meditrack <command> [flags]

commands:
  entry    interactive form entry
  import   bulk-load stock records from a CSV file
  forms    list available form definitions
  faults   export the recorded fault log
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "entry":
		err = runEntry(ctx, os.Args[2:])
	case "import":
		err = runImport(ctx, os.Args[2:])
	case "forms":
		err = runForms(ctx, os.Args[2:])
	case "faults":
		err = runFaults(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "meditrack: %v\n", err)
		os.Exit(1)
	}
}

type commonFlags struct {
	apiURL   string
	apiKey   string
	formsDir string
	source   string
	dataDir  string
	logLevel string
	logJSON  bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.apiURL, "api", envOr("MEDITRACK_API_URL", ""), "backend API base URL")
	fs.StringVar(&c.apiKey, "key", envOr("MEDITRACK_API_KEY", ""), "backend API key")
	fs.StringVar(&c.formsDir, "forms", "", "directory of YAML form definitions")
	fs.StringVar(&c.source, "schema", "", "OpenAPI document path or URL to derive forms from")
	fs.StringVar(&c.dataDir, "data", defaultDataDir(), "directory for local drafts and logs")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&c.logJSON, "log-json", false, "emit JSON logs")
	return c
}

func (c *commonFlags) setup() {
	format := "text"
	if c.logJSON {
		format = "json"
	}
	logging.Setup(c.logLevel, format)
}

func (c *commonFlags) loadForms(ctx context.Context) (*forms.Set, error) {
	switch {
	case c.formsDir != "":
		return forms.LoadFS(os.DirFS(c.formsDir))
	case c.source != "":
		builder := forms.NewBuilder(nil)
		return builder.FromSource(ctx, parseSource(c.source))
	default:
		return nil, errors.New("either -forms or -schema is required")
	}
}

func (c *commonFlags) openKV(ctx context.Context) (*storage.SQLite, error) {
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return storage.OpenSQLite(ctx, filepath.Join(c.dataDir, "meditrack.db"))
}

func (c *commonFlags) client() (backend.Client, error) {
	if c.apiURL == "" {
		return nil, errors.New("-api (or MEDITRACK_API_URL) is required")
	}
	if strings.HasPrefix(c.apiURL, "postgres://") || strings.HasPrefix(c.apiURL, "postgresql://") {
		return backend.ConnectPostgres(context.Background(), c.apiURL)
	}
	return backend.NewREST(c.apiURL, c.apiKey), nil
}

func runEntry(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("entry", flag.ExitOnError)
	common := registerCommon(fs)
	formID := fs.String("form", "", "form definition id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.setup()

	set, err := common.loadForms(ctx)
	if err != nil {
		return err
	}
	def, ok := set.Get(*formID)
	if !ok {
		return fmt.Errorf("unknown form %q (have: %s)", *formID, strings.Join(set.IDs(), ", "))
	}

	client, err := common.client()
	if err != nil {
		return err
	}
	kv, err := common.openKV(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	console := notify.NewConsole(os.Stdout)
	handler := faults.NewHandler(
		faults.WithNotifier(console),
		faults.WithFaultLog(kv),
	)
	drafts := draft.NewStore(kv)
	driver := prompt.NewSurveyDriver()
	pageURL := "cli:" + def.ID

	values, restored, err := drafts.Restore(ctx, def, pageURL, forms.Values{}, prompt.RestorePrompt{Driver: driver})
	if err != nil {
		return err
	}
	if restored {
		_ = driver.Info(ctx, "Draft restored.")
	}

	fieldValidator := validation.NewFieldValidator(rules.Default())
	values, err = collectValues(ctx, driver, def, fieldValidator, values)
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			// Keep what was typed for next time. The signal context is
			// already canceled at this point, so save on a fresh one.
			if saveErr := drafts.Save(context.Background(), def, pageURL, values); saveErr == nil {
				_ = driver.Info(context.Background(), "Draft saved.")
			}
			return nil
		}
		return err
	}

	orch := submit.New(client,
		submit.WithNotifier(console),
		submit.WithDrafts(drafts),
		submit.WithFaultHandler(handler),
	)
	result, err := orch.Submit(ctx, def, pageURL, values, nil, nil)
	if errors.Is(err, submit.ErrValidationFailed) {
		for _, message := range result.Validation.Errors {
			_ = driver.Info(ctx, "  - "+message)
		}
		return errors.New("submission rejected by validation")
	}
	return err
}

// collectValues walks the definition's fields, prompting for each and
// validating inline so mistakes are caught at the field, not at the end.
func collectValues(ctx context.Context, driver prompt.Driver, def forms.Definition, fieldValidator *validation.FieldValidator, seed forms.Values) (forms.Values, error) {
	values := seed.Clone()
	if values == nil {
		values = forms.Values{}
	}

	for _, field := range def.Fields {
		validator := func(input string) error {
			result, err := fieldValidator.Validate(field, input)
			if err != nil {
				return err
			}
			if !result.Valid {
				return errors.New(result.Error())
			}
			return nil
		}

		var answer string
		var err error
		switch {
		case len(field.Options) > 0:
			idx, selErr := driver.Select(ctx, prompt.SelectConfig{
				Message: field.Label,
				Options: field.Options,
				Help:    field.Help,
			})
			if selErr != nil {
				return values, selErr
			}
			if idx >= 0 {
				answer = field.Options[idx]
			}
		case field.Input == forms.InputCheckbox:
			checked, confErr := driver.Confirm(ctx, prompt.ConfirmConfig{
				Message: field.Label,
				Default: strings.EqualFold(field.Default, "true"),
				Help:    field.Help,
			})
			if confErr != nil {
				return values, confErr
			}
			answer = fmt.Sprintf("%t", checked)
		default:
			answer, err = driver.Input(ctx, prompt.InputConfig{
				Message:   field.Label,
				Default:   firstNonEmpty(values[field.Name], field.Default),
				Help:      field.Help,
				Validator: validator,
			})
			if err != nil {
				return values, err
			}
		}
		values[field.Name] = answer
	}
	return values, nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	common := registerCommon(fs)
	file := fs.String("file", "", "CSV file to import")
	formID := fs.String("form", "pharmacyStock", "form definition id to import into")
	delay := fs.Duration("delay", 200*time.Millisecond, "pause between submissions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.setup()

	if *file == "" {
		return errors.New("-file is required")
	}

	def := importer.DefaultStockDefinition()
	if common.formsDir != "" || common.source != "" {
		set, err := common.loadForms(ctx)
		if err != nil {
			return err
		}
		loaded, ok := set.Get(*formID)
		if !ok {
			return fmt.Errorf("unknown form %q", *formID)
		}
		def = loaded
	}

	client, err := common.client()
	if err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	imp := importer.New(client, importer.Config{Definition: def, Delay: *delay})
	summary, err := imp.Import(ctx, f)
	if errors.Is(err, importer.ErrValidationFailed) {
		fmt.Fprintf(os.Stderr, "import rejected: %d problem(s)\n", len(summary.Errors))
		for _, rowErr := range summary.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", rowErr.String())
		}
		return errors.New("fix the file and retry")
	}
	if err != nil {
		return err
	}

	fmt.Printf("imported %d/%d records", summary.Successful, summary.Total)
	if summary.Failed > 0 {
		fmt.Printf(" (%d failed)", summary.Failed)
	}
	fmt.Println()
	for _, rowErr := range summary.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", rowErr.String())
	}
	return nil
}

func runForms(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forms", flag.ExitOnError)
	common := registerCommon(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.setup()

	set, err := common.loadForms(ctx)
	if err != nil {
		return err
	}
	for _, id := range set.IDs() {
		def, _ := set.Get(id)
		fmt.Printf("%-24s %s (%d fields -> %s)\n", id, def.Title, len(def.Fields), def.Resource)
	}
	return nil
}

func runFaults(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("faults", flag.ExitOnError)
	common := registerCommon(fs)
	output := fs.String("output", "", "write the log to a file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.setup()

	kv, err := common.openKV(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	handler := faults.NewHandler(faults.WithFaultLog(kv))
	data, err := handler.ExportLog(ctx)
	if err != nil {
		return err
	}
	if *output != "" {
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
		fmt.Printf("fault log written to %s\n", *output)
		return nil
	}
	fmt.Println(string(data))
	return nil
}

func parseSource(raw string) schema.Source {
	path := strings.TrimSpace(raw)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return schema.SourceFromURL(path)
	}
	return schema.SourceFromFile(path)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "meditrack")
	}
	return ".meditrack"
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
