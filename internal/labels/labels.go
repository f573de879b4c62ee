// Package labels resolves role-aware status labels from static tables.
//
// Each status domain (AO status, application status, interview status) maps
// status values to per-role labels and visual variants. Resolution is a pure
// two-level fallback: role-specific value, then the shared default, then a
// closed fallback. The tables and the resolver are deliberately decoupled so
// new roles or statuses are additive.
package labels

import (
	"session-hub/internal/domain"
)

// Closed fallbacks for statuses or roles no table covers.
const (
	UnknownLabel   = "Unknown"
	DefaultVariant = "secondary"
)

// defaultKey selects the role-independent value inside Labels and Variants.
const defaultKey = "default"

// Entry is the label/variant configuration for one status value. Two table
// shapes are legal: Variants keyed per role, or a single shared Variant.
type Entry struct {
	Labels   map[string]string `yaml:"labels"`
	Variants map[string]string `yaml:"variants"`
	Variant  string            `yaml:"variant"`
}

// Table maps status values of one domain to their entries.
type Table map[string]Entry

// Resolved is the outcome of a lookup: what to print and how to paint it.
type Resolved struct {
	Label   string
	Variant string
}

// Resolve looks up status in table for the given viewer role. It never
// fails: unmapped statuses, unknown roles and the empty role (viewer
// unauthenticated or not yet resolved) all degrade through the fallback
// chain to {Unknown, secondary}.
func Resolve(table Table, status string, role domain.Role) Resolved {
	e, found := table[status]
	if !found {
		return Resolved{Label: UnknownLabel, Variant: DefaultVariant}
	}

	return Resolved{
		Label:   resolveLabel(e, role),
		Variant: resolveVariant(e, role),
	}
}

// resolveLabel: labels[role] → labels.default → "Unknown".
func resolveLabel(e Entry, role domain.Role) string {
	if label, ok := e.Labels[string(role)]; ok && role != "" {
		return label
	}
	if label, ok := e.Labels[defaultKey]; ok {
		return label
	}
	return UnknownLabel
}

// resolveVariant: variants[role] → variants.default → shared variant →
// "secondary".
func resolveVariant(e Entry, role domain.Role) string {
	if v, ok := e.Variants[string(role)]; ok && role != "" {
		return v
	}
	if v, ok := e.Variants[defaultKey]; ok {
		return v
	}
	if e.Variant != "" {
		return e.Variant
	}
	return DefaultVariant
}
