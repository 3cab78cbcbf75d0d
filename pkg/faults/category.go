package faults

// Category buckets a fault by origin so handling policy (retry, messaging,
// recovery actions) can be decided per bucket instead of per call site.
type Category string

const (
	CategoryNetwork    Category = "NETWORK"
	CategoryAPI        Category = "API"
	CategoryValidation Category = "VALIDATION"
	CategoryAuth       Category = "AUTH"
	CategoryPermission Category = "PERMISSION"
	CategoryData       Category = "DATA"
	CategoryUI         Category = "UI"
	CategorySystem     Category = "SYSTEM"
	CategoryUnknown    Category = "UNKNOWN"
)

// Severity grades how loudly a fault should surface.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Policy describes how one category is handled.
type Policy struct {
	Severity Severity
	// Retryable marks the category safe to retry automatically.
	Retryable bool
	// UserMessage is shown instead of the raw error text.
	UserMessage string
	// Actions are offered when the fault escalates to a modal.
	Actions []string
}

// DefaultPolicies is the handling table used when a Handler is built without
// overrides.
func DefaultPolicies() map[Category]Policy {
	return map[Category]Policy{
		CategoryNetwork: {
			Severity:    SeverityMedium,
			Retryable:   true,
			UserMessage: "Cannot reach the server. Check the connection and try again.",
		},
		CategoryAPI: {
			Severity:    SeverityHigh,
			Retryable:   true,
			UserMessage: "The server could not process the request.",
		},
		CategoryValidation: {
			Severity:    SeverityLow,
			UserMessage: "Some fields need attention before submitting.",
		},
		CategoryAuth: {
			Severity:    SeverityHigh,
			UserMessage: "Your session has expired. Sign in again to continue.",
		},
		CategoryPermission: {
			Severity:    SeverityHigh,
			UserMessage: "You do not have permission to perform this action.",
		},
		CategoryData: {
			Severity:    SeverityCritical,
			UserMessage: "Stored data could not be read.",
			Actions:     []string{"refresh", "wipe-data", "export-log", "contact-support"},
		},
		CategoryUI: {
			Severity:    SeverityLow,
			UserMessage: "The page hit a display problem. Refresh if it persists.",
		},
		CategorySystem: {
			Severity:    SeverityCritical,
			UserMessage: "Something went wrong. The error has been recorded.",
			Actions:     []string{"refresh", "export-log", "contact-support"},
		},
		CategoryUnknown: {
			Severity:    SeverityMedium,
			UserMessage: "An unexpected error occurred.",
		},
	}
}
