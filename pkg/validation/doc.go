// Package validation evaluates field values against the rules attached to a
// form definition. A FieldValidator checks one value; a FormValidator sweeps
// a whole definition and then applies cross-field checks. Results carry both
// hard errors and advisory warnings so callers can block submission on the
// former while surfacing the latter.
package validation
