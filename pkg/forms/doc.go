// Package forms defines the intake form model: field descriptors, cross-field
// check declarations, and the resource mapping each form submits to.
// Definitions are loaded from YAML documents or derived from the backend's
// OpenAPI description.
package forms
