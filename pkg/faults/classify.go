package faults

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// statusCoder is implemented by transport errors that carry an HTTP status.
// Declared structurally so this package never imports the backend client.
type statusCoder interface {
	StatusCode() int
}

// Classify buckets an arbitrary error. Status codes win over message
// heuristics; heuristics exist because browsers and proxies love to reduce
// everything to a string.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var fault Fault
	if errors.As(err, &fault) {
		return fault.Category
	}

	var coder statusCoder
	if errors.As(err, &coder) {
		return classifyStatus(coder.StatusCode(), err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryNetwork
	}

	return classifyMessage(err.Error())
}

func classifyStatus(status int, message string) Category {
	switch {
	case status == 401:
		return CategoryAuth
	case status == 403:
		return CategoryPermission
	case status == 422:
		return CategoryValidation
	case status == 400 && strings.Contains(strings.ToLower(message), "invalid"):
		return CategoryValidation
	case status >= 400:
		return CategoryAPI
	default:
		return CategoryUnknown
	}
}

func classifyMessage(message string) Category {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "network", "connection", "offline", "unreachable", "timeout", "timed out", "dns"):
		return CategoryNetwork
	case containsAny(lower, "unauthorized", "authentication", "token expired", "jwt"):
		return CategoryAuth
	case containsAny(lower, "forbidden", "permission denied"):
		return CategoryPermission
	case containsAny(lower, "unmarshal", "parse", "corrupt", "malformed", "invalid character"):
		return CategoryData
	case containsAny(lower, "validation", "required field"):
		return CategoryValidation
	default:
		return CategoryUnknown
	}
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// Normalize converts any error into a Fault. Existing faults pass through
// unchanged so ids and context survive rewrapping.
func Normalize(err error) Fault {
	var fault Fault
	if errors.As(err, &fault) {
		return fault
	}

	category := Classify(err)
	f := Fault{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Message:   err.Error(),
		Category:  category,
		Severity:  DefaultPolicies()[category].Severity,
		cause:     err,
	}
	var coder statusCoder
	if errors.As(err, &coder) {
		f.Code = coder.StatusCode()
	}
	return f
}
