// Package rules implements the named, composable validation predicates the
// intake forms are checked against. A Registry holds zero-argument rules and
// parameterized factories resolved from `name:param` specs; Builtin and
// RegisterDomain provide the stock rule set.
package rules
