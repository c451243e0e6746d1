package gogemlock

import (
	"github.com/gemlock/go-gemlock/lockfile"
	"github.com/gemlock/go-gemlock/version"
)

// SourceKind aliases the lockfile source kind so callers assembling
// manifests and callers reading lockfiles share one type.
type SourceKind = lockfile.SourceKind

// Source kinds re-exported for manifest construction.
const (
	SourceRegistry = lockfile.SourceRegistry
	SourceGit      = lockfile.SourceGit
	SourcePath     = lockfile.SourcePath
)

// Requested is one manifest line: a gem name, the constraint the user wrote
// and, for git or path sources, the pinned materialization.
type Requested struct {
	// Name is the gem name.
	Name string

	// Requirement constrains the resolved version. Empty admits any
	// version.
	Requirement version.Constraints

	// Source selects where the gem comes from. Registry gems are resolved
	// against the index; git and path gems are pinned.
	Source SourceKind

	// Version is the fixed version of a git or path gem. Ignored for
	// registry gems.
	Version version.Version

	// Remote is the git URL or local directory of a pinned gem.
	Remote string

	// Revision is the pinned git revision, if any.
	Revision string

	// Dependencies are the requirements the pinned gem's own spec
	// declares. Pinned gems participate in resolution like any other
	// node, so these are merged into the search. Ignored for registry
	// gems, whose dependencies come from the index.
	Dependencies []Dependency
}

// Dependency is a requirement declared by a pinned gem.
type Dependency struct {
	Name        string
	Requirement version.Constraints
}

// Manifest is the resolver input: the direct requirements plus the context
// recorded into the lockfile.
type Manifest struct {
	// Gems are the requested packages.
	Gems []Requested

	// Source is the registry URL recorded in the lockfile's GEM section.
	// Defaults to the public index when empty.
	Source string

	// Platforms are the platform tags the resolution should support.
	// Defaults to the neutral "ruby" platform when empty.
	Platforms []string

	// Ruby is the toolchain version to record, empty to omit.
	Ruby string
}

// Requirement looks up the requested constraint for a gem name.
func (m *Manifest) Requirement(name string) (version.Constraints, bool) {
	for _, g := range m.Gems {
		if g.Name == name {
			return g.Requirement, true
		}
	}
	return nil, false
}
