package lockfile

import (
	"fmt"
	"sort"

	"github.com/gemlock/go-gemlock/version"
)

// SourceKind identifies where a resolved package is materialized from.
// The set is closed: resolvers and serializers switch exhaustively over it.
type SourceKind int

const (
	// SourceRegistry is a package resolved against the remote gem index.
	SourceRegistry SourceKind = iota

	// SourceGit is a package pinned to a revision of a git repository.
	SourceGit

	// SourcePath is a package pinned to a local directory.
	SourcePath
)

// String returns the lockfile section keyword for the source kind.
func (s SourceKind) String() string {
	switch s {
	case SourceRegistry:
		return "GEM"
	case SourceGit:
		return "GIT"
	case SourcePath:
		return "PATH"
	}
	return fmt.Sprintf("SourceKind(%d)", int(s))
}

// Dependency is one requirement declared by a resolved entry: a package name
// plus the constraints the entry's chosen version places on it. An empty
// constraint set means any version.
type Dependency struct {
	Name        string
	Requirement version.Constraints
}

// Entry is a single resolved package: the spec's chosen version, the
// platform variant if any, the source it came from and the dependencies the
// chosen version declares.
type Entry struct {
	// Name is the gem name.
	Name string

	// Version is the exact resolved version.
	Version version.Version

	// Platform is the platform tag for platform-specific variants
	// (e.g. "arm64-darwin"). Empty for the platform-neutral variant.
	Platform string

	// Source is where the package is materialized from.
	Source SourceKind

	// Remote is the git URL or local path for SourceGit/SourcePath entries.
	// Empty for registry entries.
	Remote string

	// Revision is the pinned git revision for SourceGit entries.
	Revision string

	// Dependencies are the requirements this entry's version declares,
	// sorted by name in canonical form.
	Dependencies []Dependency
}

// Direct is a direct requirement from the manifest, preserved in the
// DEPENDENCIES section for round-trip fidelity.
type Direct struct {
	Name        string
	Requirement version.Constraints

	// Pinned marks requirements satisfied from a git or path source,
	// rendered with Bundler's "!" suffix.
	Pinned bool
}

// Resolution is the content of a lockfile: the full set of resolved entries
// plus the context the resolution was made in. A Resolution is immutable by
// convention once built; re-resolution produces a new value rather than
// mutating an existing one.
type Resolution struct {
	// Entries are the resolved packages in canonical order.
	Entries []Entry

	// Remote is the registry URL recorded in the GEM section, informational.
	Remote string

	// Platforms are the platform tags the resolution supports.
	Platforms []string

	// RubyVersion is the toolchain version recorded at resolution time,
	// empty if not recorded (the RUBY VERSION section).
	RubyVersion string

	// BundledWith is the version of the resolving tool (the BUNDLED WITH
	// section), empty if not recorded.
	BundledWith string

	// Dependencies are the manifest's direct requirements.
	Dependencies []Direct
}

// New returns an empty Resolution.
func New() *Resolution {
	return &Resolution{}
}

// Sort puts the resolution into canonical order: entries by name, then
// platform, then source kind; each entry's dependencies, the platform list
// and the direct requirements alphabetically.
func (r *Resolution) Sort() {
	sort.SliceStable(r.Entries, func(i, j int) bool {
		a, b := r.Entries[i], r.Entries[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.Source < b.Source
	})

	for i := range r.Entries {
		deps := r.Entries[i].Dependencies
		sort.Slice(deps, func(a, b int) bool { return deps[a].Name < deps[b].Name })
	}

	sort.Strings(r.Platforms)
	sort.Slice(r.Dependencies, func(i, j int) bool {
		return r.Dependencies[i].Name < r.Dependencies[j].Name
	})
}

// Lookup returns the entry for a package name, preferring the variant whose
// platform matches the given tag and falling back to the platform-neutral
// variant. The second result is false if the name is not resolved at all.
func (r *Resolution) Lookup(name, platform string) (Entry, bool) {
	var generic *Entry
	for i := range r.Entries {
		e := &r.Entries[i]
		if e.Name != name {
			continue
		}
		if e.Platform == platform {
			return *e, true
		}
		if e.Platform == "" {
			generic = e
		}
	}
	if generic != nil {
		return *generic, true
	}
	return Entry{}, false
}

// Validate checks the resolution's structural invariants: every dependency
// name listed by an entry must itself be resolved, and no package name may
// have two entries with the same platform.
func (r *Resolution) Validate() error {
	type key struct{ name, platform string }
	seen := make(map[key]bool, len(r.Entries))
	names := make(map[string]bool, len(r.Entries))
	for _, e := range r.Entries {
		k := key{e.Name, e.Platform}
		if seen[k] {
			return fmt.Errorf("duplicate entry for %s (platform %q)", e.Name, e.Platform)
		}
		seen[k] = true
		names[e.Name] = true
	}

	for _, e := range r.Entries {
		for _, d := range e.Dependencies {
			if !names[d.Name] {
				return fmt.Errorf("entry %s depends on %s, which is not resolved", e.Name, d.Name)
			}
		}
	}
	return nil
}

// Equal reports whether two resolutions have the same content: the same
// entry set, platforms, recorded versions and direct requirements,
// independent of ordering.
func (r *Resolution) Equal(o *Resolution) bool {
	if r == nil || o == nil {
		return r == o
	}
	a, b := r.clone(), o.clone()
	a.Sort()
	b.Sort()

	if a.Remote != b.Remote || a.RubyVersion != b.RubyVersion || a.BundledWith != b.BundledWith {
		return false
	}
	if len(a.Entries) != len(b.Entries) ||
		len(a.Platforms) != len(b.Platforms) ||
		len(a.Dependencies) != len(b.Dependencies) {
		return false
	}
	for i := range a.Platforms {
		if a.Platforms[i] != b.Platforms[i] {
			return false
		}
	}
	for i := range a.Dependencies {
		x, y := a.Dependencies[i], b.Dependencies[i]
		if x.Name != y.Name || x.Pinned != y.Pinned || x.Requirement.String() != y.Requirement.String() {
			return false
		}
	}
	for i := range a.Entries {
		if !entriesEqual(a.Entries[i], b.Entries[i]) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b Entry) bool {
	if a.Name != b.Name || !a.Version.Equal(b.Version) || a.Platform != b.Platform ||
		a.Source != b.Source || a.Remote != b.Remote || a.Revision != b.Revision {
		return false
	}
	if len(a.Dependencies) != len(b.Dependencies) {
		return false
	}
	for i := range a.Dependencies {
		x, y := a.Dependencies[i], b.Dependencies[i]
		if x.Name != y.Name || x.Requirement.String() != y.Requirement.String() {
			return false
		}
	}
	return true
}

func (r *Resolution) clone() *Resolution {
	c := *r
	c.Entries = make([]Entry, len(r.Entries))
	for i, e := range r.Entries {
		e.Dependencies = append([]Dependency(nil), e.Dependencies...)
		c.Entries[i] = e
	}
	c.Platforms = append([]string(nil), r.Platforms...)
	c.Dependencies = append([]Direct(nil), r.Dependencies...)
	return &c
}
