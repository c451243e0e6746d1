package graph

import (
	"sort"

	"github.com/gemlock/go-gemlock/version"
)

// AddRequirement appends a constraint for a gem to the table.
func (g *Graph) AddRequirement(name string, req Requirement) {
	g.requirements[name] = append(g.requirements[name], req)
	g.journal = append(g.journal, name)
}

// Requirements returns the requirement chain for a gem in insertion order.
// The returned slice must not be modified.
func (g *Graph) Requirements(name string) []Requirement {
	return g.requirements[name]
}

// Constraints returns the merged conjunction of every constraint recorded
// for a gem.
func (g *Graph) Constraints(name string) version.Constraints {
	var merged version.Constraints
	for _, req := range g.requirements[name] {
		merged = append(merged, req.Constraint...)
	}
	return merged
}

// Constrained reports whether any requirement has been recorded for a gem.
func (g *Graph) Constrained(name string) bool {
	return len(g.requirements[name]) > 0
}

// Mark returns the current journal position.
func (g *Graph) Mark() Mark {
	return Mark(len(g.journal))
}

// Rewind undoes every requirement added after the mark.
func (g *Graph) Rewind(mark Mark) {
	for i := len(g.journal) - 1; i >= int(mark); i-- {
		name := g.journal[i]
		reqs := g.requirements[name]
		if len(reqs) <= 1 {
			delete(g.requirements, name)
		} else {
			g.requirements[name] = reqs[:len(reqs)-1]
		}
	}
	g.journal = g.journal[:mark]
}

// Assign records the decided version for a gem. It overwrites any previous
// assignment for the same name.
func (g *Graph) Assign(a Assignment) {
	g.assignments[a.Name] = a
}

// Unassign removes the assignment for a gem.
func (g *Graph) Unassign(name string) {
	delete(g.assignments, name)
}

// Assigned returns the assignment for a gem, if any.
func (g *Graph) Assigned(name string) (Assignment, bool) {
	a, ok := g.assignments[name]
	return a, ok
}

// Assignments returns all assignments sorted by gem name.
func (g *Graph) Assignments() []Assignment {
	out := make([]Assignment, 0, len(g.assignments))
	for _, a := range g.assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unassigned returns the constrained gem names that have no assignment yet,
// sorted by name.
func (g *Graph) Unassigned() []string {
	var out []string
	for name := range g.requirements {
		if _, ok := g.assignments[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Violations returns the assigned gems whose versions no longer satisfy
// their merged constraints. A backtracking solver calls this after merging
// a candidate's requirements: a non-empty result fails the candidate before
// any recursion.
func (g *Graph) Violations() []string {
	var out []string
	for name, a := range g.assignments {
		if !g.Constraints(name).SatisfiedBy(a.Version) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
