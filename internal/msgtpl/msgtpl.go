// Package msgtpl renders short user-facing message templates. Messages may be
// plain strings or pongo2 templates; rendering is best-effort so a malformed
// template never blocks a validation result or a notification.
package msgtpl

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

var (
	mu    sync.Mutex
	cache = map[string]*pongo2.Template{}
)

// IsTemplate reports whether the message contains template markup.
func IsTemplate(message string) bool {
	return strings.Contains(message, "{{") || strings.Contains(message, "{%")
}

// Render evaluates a message template against the supplied data. Plain
// strings are returned unchanged. When parsing or execution fails the raw
// message is returned so callers always have something to surface.
func Render(message string, data map[string]any) string {
	if !IsTemplate(message) {
		return message
	}

	tmpl, err := parse(message)
	if err != nil {
		return message
	}

	ctx := make(pongo2.Context, len(data))
	for key, value := range data {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		ctx[key] = value
	}

	out, err := tmpl.Execute(ctx)
	if err != nil {
		return message
	}
	return out
}

func parse(message string) (*pongo2.Template, error) {
	mu.Lock()
	defer mu.Unlock()

	if tmpl, ok := cache[message]; ok {
		return tmpl, nil
	}
	tmpl, err := pongo2.FromString(message)
	if err != nil {
		return nil, err
	}
	cache[message] = tmpl
	return tmpl, nil
}
