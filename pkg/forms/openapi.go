package forms

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/IamBlackShifu/MediTrack/internal/schema"
)

// Extension keys recognized in the backend's OpenAPI description. The hosted
// platform publishes one document per project; annotating operations with the
// x-meditrack namespace lets the same document drive both the API and the
// intake forms.
const (
	extResource    = "x-meditrack-resource"
	extRules       = "x-meditrack-rules"
	extColumn      = "x-meditrack-column"
	extFreeText    = "x-meditrack-freetext"
	extCrossChecks = "x-meditrack-crosschecks"
)

// Builder derives form definitions from the backend's OpenAPI description.
type Builder struct {
	loader *schema.Loader
}

// NewBuilder constructs a Builder. A nil loader gets the default (file + URL
// capable) one.
func NewBuilder(loader *schema.Loader) *Builder {
	if loader == nil {
		loader = schema.NewLoader(schema.LoaderOptions{})
	}
	return &Builder{loader: loader}
}

// FromDocument derives a Set of form definitions from a raw OpenAPI payload,
// one definition per writable operation.
func (b *Builder) FromDocument(ctx context.Context, data []byte) (*Set, error) {
	operations, err := schema.Parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("forms: %w", err)
	}

	set := &Set{defs: make(map[string]Definition, len(operations))}
	for id, op := range operations {
		def, err := definitionFromOperation(op)
		if err != nil {
			return nil, fmt.Errorf("forms: operation %q: %w", id, err)
		}
		set.defs[def.ID] = def
	}
	return set, nil
}

// FromSource loads and derives in one step.
func (b *Builder) FromSource(ctx context.Context, src schema.Source) (*Set, error) {
	data, err := b.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("forms: %w", err)
	}
	return b.FromDocument(ctx, data)
}

func definitionFromOperation(op schema.Operation) (Definition, error) {
	def := Definition{
		ID:       op.ID,
		Title:    op.Summary,
		Resource: strings.Trim(op.Path, "/"),
	}
	if res := extString(op.Extensions, extResource); res != "" {
		def.Resource = res
	}
	if def.Resource == "" {
		return Definition{}, fmt.Errorf("no resource derivable")
	}

	required := make(map[string]struct{}, len(op.Request.Required))
	for _, name := range op.Request.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(op.Request.Properties))
	for name := range op.Request.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := op.Request.Properties[name]
		_, isRequired := required[name]
		def.Fields = append(def.Fields, fieldFromProperty(name, prop, isRequired))
	}
	if len(def.Fields) == 0 {
		return Definition{}, fmt.Errorf("request body has no properties")
	}

	def.CrossChecks = crossChecksFromExtension(op.Extensions)
	for _, check := range def.CrossChecks {
		if _, ok := def.Field(check.First); !ok {
			return Definition{}, fmt.Errorf("cross check references unknown field %q", check.First)
		}
		if _, ok := def.Field(check.Second); !ok {
			return Definition{}, fmt.Errorf("cross check references unknown field %q", check.Second)
		}
	}
	return def, nil
}

func fieldFromProperty(name string, prop schema.Property, required bool) Field {
	field := Field{
		Name:     name,
		Label:    labelFromName(name),
		Input:    inputFor(prop),
		Required: required,
		Help:     prop.Description,
	}

	if col := extString(prop.Extensions, extColumn); col != "" {
		field.Column = col
	}
	if extBool(prop.Extensions, extFreeText) {
		field.FreeText = true
	}
	if prop.Default != nil {
		field.Default = fmt.Sprint(prop.Default)
	}
	for _, option := range prop.Enum {
		field.Options = append(field.Options, fmt.Sprint(option))
	}
	if len(field.Options) > 0 {
		field.Input = InputSelect
	}

	field.Rules = rulesFromProperty(prop)
	return field
}

// rulesFromProperty maps JSON schema constraints onto registry rule specs.
// Explicit x-meditrack-rules annotations are appended last so they win the
// first-failure ordering only after the structural constraints.
func rulesFromProperty(prop schema.Property) []string {
	var specs []string

	switch prop.Type {
	case "integer":
		specs = append(specs, "integer")
	case "number":
		specs = append(specs, "numeric")
		if prop.Minimum != nil && *prop.Minimum > 0 {
			specs = append(specs, "positive-number")
		}
	}

	switch strings.ToLower(prop.Format) {
	case "email":
		specs = append(specs, "email")
	case "date":
		specs = append(specs, "date")
	case "tel", "phone":
		specs = append(specs, "phone")
	}

	if prop.MinLength != nil {
		specs = append(specs, "min-length:"+strconv.FormatUint(*prop.MinLength, 10))
	}
	if prop.MaxLength != nil {
		specs = append(specs, "max-length:"+strconv.FormatUint(*prop.MaxLength, 10))
	}
	if prop.Pattern != "" {
		specs = append(specs, "pattern:"+prop.Pattern)
	}

	if annotated := extString(prop.Extensions, extRules); annotated != "" {
		for _, spec := range strings.Split(annotated, ",") {
			if trimmed := strings.TrimSpace(spec); trimmed != "" {
				specs = append(specs, trimmed)
			}
		}
	}
	return specs
}

func inputFor(prop schema.Property) InputType {
	switch prop.Type {
	case "boolean":
		return InputCheckbox
	case "integer", "number":
		return InputNumber
	}

	switch strings.ToLower(prop.Format) {
	case "email":
		return InputEmail
	case "date":
		return InputDate
	case "time":
		return InputTime
	case "tel", "phone":
		return InputPhone
	case "byte", "binary":
		return InputFile
	}
	return InputText
}

// crossChecksFromExtension decodes the x-meditrack-crosschecks annotation, a
// list of `kind first second [message]` entries.
func crossChecksFromExtension(ext map[string]any) []CrossCheck {
	raw, ok := ext[extCrossChecks]
	if !ok {
		return nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}

	var checks []CrossCheck
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		check := CrossCheck{
			Kind:    CrossCheckKind(extString(m, "kind")),
			First:   extString(m, "first"),
			Second:  extString(m, "second"),
			Message: extString(m, "message"),
		}
		if check.Kind == "" || check.First == "" || check.Second == "" {
			continue
		}
		checks = append(checks, check)
	}
	return checks
}

func labelFromName(name string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	words := strings.Fields(cleaned)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func extString(ext map[string]any, key string) string {
	if len(ext) == 0 {
		return ""
	}
	if value, ok := ext[key]; ok {
		if str, ok := value.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}

func extBool(ext map[string]any, key string) bool {
	if len(ext) == 0 {
		return false
	}
	switch v := ext[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}
