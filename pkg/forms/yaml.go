package forms

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set holds the loaded form definitions keyed by form ID.
type Set struct {
	defs map[string]Definition
}

// Get returns the definition registered under the form ID.
func (s *Set) Get(id string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.defs[id]
	return def, ok
}

// IDs returns the sorted form identifiers.
func (s *Set) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the set holds no definitions.
func (s *Set) Empty() bool {
	return s == nil || len(s.defs) == 0
}

// LoadFS walks an fs.FS for YAML form definition documents (.yaml/.yml) and
// parses them into a Set. Each document may hold a single definition or a
// `forms:` list. Duplicate IDs are an error: definitions are wired explicitly,
// not merged.
func LoadFS(fsys fs.FS) (*Set, error) {
	if fsys == nil {
		return &Set{defs: map[string]Definition{}}, nil
	}

	set := &Set{defs: make(map[string]Definition)}
	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("forms: read %s: %w", name, err)
		}
		defs, err := Parse(data)
		if err != nil {
			return fmt.Errorf("forms: parse %s: %w", name, err)
		}
		for _, def := range defs {
			if _, exists := set.defs[def.ID]; exists {
				return fmt.Errorf("forms: duplicate definition %q in %s", def.ID, name)
			}
			set.defs[def.ID] = def
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

type definitionDocument struct {
	Forms      []Definition `yaml:"forms"`
	Definition `yaml:",inline"`
}

// Parse decodes one YAML document into validated definitions.
func Parse(data []byte) ([]Definition, error) {
	var doc definitionDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	defs := doc.Forms
	if len(defs) == 0 && doc.ID != "" {
		defs = []Definition{doc.Definition}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("document defines no forms")
	}

	for i := range defs {
		if err := validateDefinition(&defs[i]); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func validateDefinition(def *Definition) error {
	if strings.TrimSpace(def.ID) == "" {
		return fmt.Errorf("form id is required")
	}
	if strings.TrimSpace(def.Resource) == "" {
		return fmt.Errorf("form %q: resource is required", def.ID)
	}
	if len(def.Fields) == 0 {
		return fmt.Errorf("form %q: at least one field is required", def.ID)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("form %q: field %d has no name", def.ID, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %q: duplicate field %q", def.ID, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Input == "" {
			f.Input = InputText
		}
	}

	for _, check := range def.CrossChecks {
		if _, ok := def.Field(check.First); !ok {
			return fmt.Errorf("form %q: cross check references unknown field %q", def.ID, check.First)
		}
		if _, ok := def.Field(check.Second); !ok {
			return fmt.Errorf("form %q: cross check references unknown field %q", def.ID, check.Second)
		}
		switch check.Kind {
		case CrossCheckDateOrder, CrossCheckTimeOrder, CrossCheckIDPrefix:
		default:
			return fmt.Errorf("form %q: unknown cross check kind %q", def.ID, check.Kind)
		}
	}
	return nil
}
