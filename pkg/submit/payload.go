package submit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/IamBlackShifu/MediTrack/pkg/backend"
	"github.com/IamBlackShifu/MediTrack/pkg/forms"
)

// strict strips every tag from free-text input before it reaches storage.
var strict = bluemonday.StrictPolicy()

// BuildPayload converts validated form values into a backend record: columns
// renamed per the definition, checkboxes and numbers coerced to their real
// types, free text sanitized. Values that name no field are an error so a
// stale page can never smuggle columns into the API.
func BuildPayload(def forms.Definition, values forms.Values) (backend.Record, error) {
	for name := range values {
		if _, ok := def.Field(name); !ok {
			return nil, fmt.Errorf("submit: value for unknown field %q", name)
		}
	}

	record := make(backend.Record, len(def.Fields))
	for _, field := range def.Fields {
		raw, ok := values[field.Name]
		value := strings.TrimSpace(raw)

		switch field.Input {
		case forms.InputCheckbox:
			record[field.ColumnName()] = parseCheckbox(value)
			continue
		case forms.InputNumber:
			if value == "" {
				continue
			}
			number, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("submit: field %q: %q is not a number", field.Name, value)
			}
			record[field.ColumnName()] = number
			continue
		case forms.InputFile:
			// File fields are filled in after upload, not from raw values.
			continue
		}

		if !ok || value == "" {
			continue
		}
		if field.FreeText {
			value = strict.Sanitize(value)
		}
		record[field.ColumnName()] = value
	}
	return record, nil
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on", "checked":
		return true
	default:
		return false
	}
}
