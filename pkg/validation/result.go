package validation

// Result captures the outcome of validating a single field value.
type Result struct {
	// Valid is false only when a hard error fired. Warnings never flip it.
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidResult is the zero-friction "nothing wrong" outcome.
func ValidResult() Result {
	return Result{Valid: true}
}

// Error returns the first error message, or "" when the result is valid.
func (r Result) Error() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// FormResult aggregates per-field results plus any cross-field failures.
type FormResult struct {
	Valid  bool
	Fields map[string]Result
	// Errors flattens every hard failure, per-field first then cross-field,
	// in definition order.
	Errors []string
	// FirstInvalid names the first field (in definition order) that failed,
	// so the UI can move focus there.
	FirstInvalid string

	// warnings keeps the advisory messages in definition order.
	warnings []string
}

// Warnings flattens advisory messages across all fields, in definition order.
func (r FormResult) Warnings() []string {
	return r.warnings
}
