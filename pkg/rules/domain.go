package rules

import (
	"regexp"
	"strings"
)

var (
	patientIDPattern   = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)
	drugCodePattern    = regexp.MustCompile(`^[A-Za-z0-9]{3,10}$`)
	batchNumberPattern = regexp.MustCompile(`^[A-Za-z0-9-]{4,20}$`)
	concentrationRe    = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*([A-Za-z/%]+)$`)
)

// concentrationUnits is the recognized unit token set for drug concentrations.
var concentrationUnits = map[string]struct{}{
	"mg": {}, "g": {}, "mcg": {}, "ug": {}, "kg": {},
	"ml": {}, "l": {}, "iu": {}, "%": {},
	"mg/ml": {}, "mg/l": {}, "g/l": {}, "mcg/ml": {},
	"mmol/l": {}, "iu/ml": {},
}

// RegisterDomain adds the medical-record specific rules on top of the
// builtins. The registry is returned for chaining.
func RegisterDomain(r *Registry) *Registry {
	r.MustRegister(Rule{
		Name:    "patient-id",
		Test:    func(value string) bool { return patientIDPattern.MatchString(strings.TrimSpace(value)) },
		Message: "Patient ID must be 6–12 uppercase letters or digits (e.g. AB123456)",
	})
	r.MustRegister(Rule{
		Name:    "drug-code",
		Test:    func(value string) bool { return drugCodePattern.MatchString(strings.TrimSpace(value)) },
		Message: "Drug code must be 3–10 letters or digits",
	})
	r.MustRegister(Rule{
		Name:    "batch-number",
		Test:    func(value string) bool { return batchNumberPattern.MatchString(strings.TrimSpace(value)) },
		Message: "Batch number must be 4–20 letters, digits or hyphens",
	})
	r.MustRegister(Rule{
		Name:    "concentration",
		Test:    validConcentration,
		Message: "Concentration must be a number followed by a unit (e.g. 250 mg/ml)",
	})
	return r
}

// Default returns a registry carrying both the builtin and domain rules. This
// is what the CLI and the orchestrator defaults construct.
func Default() *Registry {
	return RegisterDomain(Builtin())
}

func validConcentration(value string) bool {
	match := concentrationRe.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return false
	}
	_, ok := concentrationUnits[strings.ToLower(match[2])]
	return ok
}
