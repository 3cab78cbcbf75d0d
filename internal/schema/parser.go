package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation is the distilled view of one OpenAPI operation: enough to derive
// an intake form definition and nothing more.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	Request     Property
	Extensions  map[string]any
}

// Property mirrors the constraint subset of a JSON schema node that maps onto
// registry rules.
type Property struct {
	Type        string
	Format      string
	Description string
	Pattern     string
	MinLength   *uint64
	MaxLength   *uint64
	Minimum     *float64
	Maximum     *float64
	Required    []string
	Enum        []any
	Default     any
	Properties  map[string]Property
	Extensions  map[string]any
}

// Parse extracts the operations of an OpenAPI 3 document keyed by
// operationId. Operations without an id are keyed `method:path`.
func Parse(ctx context.Context, data []byte) (map[string]Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("schema parser: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("schema parser: load document: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("schema parser: document does not contain any paths")
	}

	operations := make(map[string]Operation)
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		collect(operations, "POST", path, item.Post)
		collect(operations, "PUT", path, item.Put)
		collect(operations, "PATCH", path, item.Patch)
	}

	if len(operations) == 0 {
		return nil, errors.New("schema parser: no writable operations extracted")
	}
	return operations, nil
}

func collect(target map[string]Operation, method, path string, op *openapi3.Operation) {
	if op == nil {
		return
	}

	id := op.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}

	target[id] = Operation{
		ID:          id,
		Method:      method,
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		Request:     requestProperty(op.RequestBody),
		Extensions:  op.Extensions,
	}
}

func requestProperty(body *openapi3.RequestBodyRef) Property {
	if body == nil || body.Value == nil {
		return Property{}
	}

	// JSON bodies first; the hosted platform only speaks JSON anyway.
	for _, contentType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if media, ok := body.Value.Content[contentType]; ok && media.Schema != nil {
			return convertSchema(media.Schema.Value)
		}
	}
	for _, media := range body.Value.Content {
		if media.Schema != nil {
			return convertSchema(media.Schema.Value)
		}
	}
	return Property{}
}

func convertSchema(s *openapi3.Schema) Property {
	if s == nil {
		return Property{}
	}

	prop := Property{
		Format:      s.Format,
		Description: s.Description,
		Pattern:     s.Pattern,
		MinLength:   cloneUint(&s.MinLength),
		MaxLength:   s.MaxLength,
		Minimum:     s.Min,
		Maximum:     s.Max,
		Default:     s.Default,
		Extensions:  s.Extensions,
	}
	if s.Type != nil && len(s.Type.Slice()) > 0 {
		prop.Type = s.Type.Slice()[0]
	}
	if len(s.Required) > 0 {
		prop.Required = append([]string(nil), s.Required...)
	}
	if len(s.Enum) > 0 {
		prop.Enum = append([]any(nil), s.Enum...)
	}

	if len(s.Properties) > 0 {
		prop.Properties = make(map[string]Property, len(s.Properties))
		for name, ref := range s.Properties {
			if ref == nil {
				continue
			}
			prop.Properties[name] = convertSchema(ref.Value)
		}
	}
	return prop
}

func cloneUint(v *uint64) *uint64 {
	if v == nil || *v == 0 {
		return nil
	}
	out := *v
	return &out
}
