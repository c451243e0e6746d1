package gogemlock

import (
	"fmt"
	"strings"

	"github.com/gemlock/go-gemlock/graph"
	"github.com/gemlock/go-gemlock/registry"
	"github.com/gemlock/go-gemlock/version"
)

// Sentinel errors shared with the registry package, re-exported so callers
// can branch on resolution failures without importing registry.
var (
	// ErrGemNotFound indicates a requested gem does not exist in the
	// registry.
	ErrGemNotFound = registry.ErrNotFound

	// ErrRegistryUnavailable indicates the registry could not be reached.
	// The resolution is aborted, not retried; retry policy belongs to the
	// caller.
	ErrRegistryUnavailable = registry.ErrUnavailable
)

// Conflict is one unsatisfiable gem in a failed resolution: the gem name,
// the chain of requirers that constrained it and a short reason.
type Conflict struct {
	graph.Conflict

	// Reason distinguishes why no candidate survived: every candidate
	// violated the requirements, or the gem is missing from the registry.
	Reason string
}

// ConflictReport is returned when the search space is genuinely exhausted.
// It carries the full diagnostic chains so callers can print an explanation
// without re-running resolution.
type ConflictReport struct {
	Conflicts []Conflict
}

func (r *ConflictReport) Error() string {
	if len(r.Conflicts) == 0 {
		return "dependency resolution failed"
	}

	var b strings.Builder
	b.WriteString("dependency resolution failed:")
	for _, c := range r.Conflicts {
		b.WriteString("\n")
		b.WriteString(c.Conflict.String())
		if c.Reason != "" {
			b.WriteString("\n  (" + c.Reason + ")")
		}
	}
	return b.String()
}

// PinConflictError is returned when a git or path pin's fixed version
// violates the accumulated requirements for its name. Pins are not
// backtrackable, so this is fatal rather than a search failure.
type PinConflictError struct {
	Name         string
	Version      version.Version
	Requirements []graph.Requirement
}

func (e *PinConflictError) Error() string {
	var chains []string
	for _, req := range e.Requirements {
		if len(req.Constraint) == 0 {
			continue
		}
		chains = append(chains, fmt.Sprintf("%s (required by %s)", req.Constraint, req.Requirer))
	}
	return fmt.Sprintf("pinned gem %s at %s does not satisfy %s",
		e.Name, e.Version, strings.Join(chains, "; "))
}
