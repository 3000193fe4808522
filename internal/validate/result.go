// Package validate checks waypoint's tracked documents for structural
// problems and cross-document inconsistencies.
//
// Findings are split into errors, which make a document invalid, and
// warnings, which are advisory. Validation accumulates every finding it can
// instead of stopping at the first one, never mutates its input, and never
// panics on malformed data.
package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mrz1836/waypoint/internal/constants"
)

// Result is the outcome of a validation run. Valid is true exactly when
// Errors is empty.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// newResult returns an empty, valid result.
func newResult() Result {
	return Result{Valid: true, Errors: []string{}, Warnings: []string{}}
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// merge appends other's findings after r's.
func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = len(r.Errors) == 0
}

// mergeUnique appends other's findings that r does not already contain.
func (r *Result) mergeUnique(other Result) {
	for _, e := range other.Errors {
		if !slices.Contains(r.Errors, e) {
			r.Errors = append(r.Errors, e)
		}
	}
	for _, w := range other.Warnings {
		if !slices.Contains(r.Warnings, w) {
			r.Warnings = append(r.Warnings, w)
		}
	}
	r.Valid = len(r.Errors) == 0
}

// Summary renders a result as a human-readable report: a pass/fail line,
// then the errors and warnings in discovery order.
func Summary(r Result) string {
	var sb strings.Builder

	if r.Valid {
		sb.WriteString("✓ Validation passed")
	} else {
		sb.WriteString("✗ Validation failed")
	}

	if len(r.Errors) > 0 {
		sb.WriteString("\n\nErrors:")
		for _, e := range r.Errors {
			sb.WriteString("\n  - " + e)
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\n\nWarnings:")
		for _, w := range r.Warnings {
			sb.WriteString("\n  - " + w)
		}
	}

	return sb.String()
}

// Validator checks documents against the expected schema version and
// branch naming convention.
type Validator struct {
	schemaVersion string
	branchPrefix  string
}

// Option configures a Validator.
type Option func(*Validator)

// WithSchemaVersion sets the schema version a session state is expected to carry.
func WithSchemaVersion(v string) Option {
	return func(val *Validator) {
		if v != "" {
			val.schemaVersion = v
		}
	}
}

// WithBranchPrefix sets the expected working branch prefix. An empty prefix
// disables the branch naming check.
func WithBranchPrefix(prefix string) Option {
	return func(val *Validator) {
		val.branchPrefix = prefix
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		schemaVersion: constants.SchemaVersion,
		branchPrefix:  constants.WorkingBranchPrefix,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}
