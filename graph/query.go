package graph

import (
	"fmt"
	"strings"
)

// Requirers returns the names that introduced constraints on a gem, in
// insertion order and without duplicates.
func (g *Graph) Requirers(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, req := range g.requirements[name] {
		if !seen[req.Requirer] {
			seen[req.Requirer] = true
			out = append(out, req.Requirer)
		}
	}
	return out
}

// Explain renders the requirement chain for a gem as human-readable lines,
// one per recorded constraint:
//
//	rack (>= 2.0) required by Gemfile
//	rack (< 3.0) required by rails
func (g *Graph) Explain(name string) string {
	reqs := g.requirements[name]
	if len(reqs) == 0 {
		return fmt.Sprintf("%s is not required by anything", name)
	}

	var b strings.Builder
	for i, req := range reqs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatRequirement(name, req))
	}
	return b.String()
}

func formatRequirement(name string, req Requirement) string {
	if len(req.Constraint) == 0 {
		return fmt.Sprintf("%s required by %s", name, req.Requirer)
	}
	return fmt.Sprintf("%s (%s) required by %s", name, req.Constraint, req.Requirer)
}

// Conflict describes a gem whose accumulated constraints could not be
// jointly satisfied, together with the full requirement chain that led
// there.
type Conflict struct {
	// Name is the unsatisfiable gem.
	Name string

	// Requirements is the chain of (requirer, constraint) pairs recorded
	// for the gem at the point the search exhausted its candidates.
	Requirements []Requirement
}

// String renders the conflict with every requirer and its constraint.
func (c Conflict) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not satisfy requirements for %s:", c.Name)
	for _, req := range c.Requirements {
		b.WriteString("\n  ")
		b.WriteString(formatRequirement(c.Name, req))
	}
	return b.String()
}

// ConflictFor assembles a Conflict from the gem's current requirement
// chain. The chain is copied so it survives later rewinds.
func (g *Graph) ConflictFor(name string) Conflict {
	reqs := g.requirements[name]
	return Conflict{
		Name:         name,
		Requirements: append([]Requirement(nil), reqs...),
	}
}
