package rules

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores validation rules and parameterized rule factories by name,
// providing discovery and duplication safeguards. A single registry instance
// is constructed at startup and injected into validators; there is no ambient
// global.
type Registry struct {
	mu        sync.RWMutex
	rules     map[string]Rule
	factories map[string]Factory
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		rules:     make(map[string]Rule),
		factories: make(map[string]Factory),
	}
}

// Register adds a rule by its Name. Duplicate names return an error.
func (r *Registry) Register(rule Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("rules: rule name is required")
	}
	if rule.Test == nil {
		return fmt.Errorf("rules: rule %q has no test", rule.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.Name]; exists {
		return fmt.Errorf("rules: rule %q already registered", rule.Name)
	}
	if _, exists := r.factories[rule.Name]; exists {
		return fmt.Errorf("rules: rule %q already registered as a factory", rule.Name)
	}

	r.rules[rule.Name] = rule
	return nil
}

// RegisterFactory adds a parameterized rule factory invoked for `name:param`
// specs. Duplicate names return an error.
func (r *Registry) RegisterFactory(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("rules: factory name is required")
	}
	if factory == nil {
		return fmt.Errorf("rules: factory %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("rules: factory %q already registered", name)
	}
	if _, exists := r.rules[name]; exists {
		return fmt.Errorf("rules: factory %q already registered as a rule", name)
	}

	r.factories[name] = factory
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// MustRegisterFactory panics on registration failure.
func (r *Registry) MustRegisterFactory(name string, factory Factory) {
	if err := r.RegisterFactory(name, factory); err != nil {
		panic(err)
	}
}

// Get retrieves a zero-argument rule by name.
func (r *Registry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[name]
	return rule, ok
}

// Resolve looks up a rule spec of the form `name` or `name:param`. A missing
// name resolves to (zero Rule, false, nil): unknown rule names are treated as
// a no-op pass so forms referencing not-yet-implemented rules keep working.
// Callers should log unresolved specs to keep the gap observable. A factory
// that rejects its parameter returns an error, since a present-but-misconfigured
// rule is a form definition bug rather than a missing rule.
func (r *Registry) Resolve(spec string) (Rule, bool, error) {
	name, param, parameterized := SplitSpec(spec)
	if name == "" {
		return Rule{}, false, nil
	}

	r.mu.RLock()
	rule, haveRule := r.rules[name]
	factory, haveFactory := r.factories[name]
	r.mu.RUnlock()

	if parameterized {
		if !haveFactory {
			return Rule{}, false, nil
		}
		built, err := factory(param)
		if err != nil {
			return Rule{}, false, fmt.Errorf("rules: build %q: %w", spec, err)
		}
		return built, true, nil
	}

	if !haveRule {
		return Rule{}, false, nil
	}
	return rule, true, nil
}

// Has reports whether a rule or factory is registered under the name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.rules[name]; ok {
		return true
	}
	_, ok := r.factories[name]
	return ok
}

// List returns the sorted names of all registered rules and factories.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rules)+len(r.factories))
	for name := range r.rules {
		names = append(names, name)
	}
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
