package graph

import (
	"github.com/gemlock/go-gemlock/version"
)

// ManifestRequirer is the requirer recorded for direct manifest
// requirements, distinguishing them from requirements introduced by
// resolved gems.
const ManifestRequirer = "Gemfile"

// Requirement is one constraint on a gem together with the party that
// introduced it: either ManifestRequirer or the name of a resolved gem
// whose chosen version declares the dependency.
type Requirement struct {
	// Requirer introduced the constraint.
	Requirer string

	// Constraint restricts the gem's admissible versions. Empty admits
	// any version.
	Constraint version.Constraints
}

// Assignment records the decided version for one gem name.
type Assignment struct {
	// Name is the gem name.
	Name string

	// Version is the chosen version.
	Version version.Version

	// Platform is the chosen variant's platform tag, empty for the
	// neutral variant.
	Platform string

	// Dependencies are the gem names the chosen version requires.
	Dependencies []string

	// Pinned marks assignments fixed by a git or path source rather than
	// decided against the registry.
	Pinned bool
}

// Graph is the mutable state of one resolution run: the requirement table
// and the partial assignment map.
type Graph struct {
	requirements map[string][]Requirement
	assignments  map[string]Assignment

	// journal records requirement insertions in order so Rewind can undo
	// everything merged after a mark.
	journal []string
}

// Mark is a position in the requirement journal, taken before a tentative
// merge and passed to Rewind to undo it.
type Mark int

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		requirements: make(map[string][]Requirement),
		assignments:  make(map[string]Assignment),
	}
}
