package registry

import (
	"context"
	"errors"
	"sort"

	"github.com/gemlock/go-gemlock/version"
)

// Sentinel errors for registry failures.
var (
	// ErrNotFound indicates the gem does not exist in the registry.
	// Terminal for that name: retrying will not help.
	ErrNotFound = errors.New("gem not found")

	// ErrUnavailable indicates the registry could not be reached or
	// answered with a server-side failure. Transient: the caller may retry.
	ErrUnavailable = errors.New("registry unavailable")
)

// Requirement is a dependency declared by a release: a gem name and the
// constraints the release places on it.
type Requirement struct {
	Name       string
	Constraint version.Constraints
}

// Release is one published version of a gem. Platform-specific builds of
// the same version appear as separate releases sharing the version number.
type Release struct {
	// Version is the published version.
	Version version.Version

	// Platform is the platform tag for platform-specific builds
	// (e.g. "arm64-darwin"). Empty for the platform-neutral build.
	Platform string

	// Dependencies are the runtime requirements declared by this release,
	// sorted by gem name.
	Dependencies []Requirement
}

// Client is the registry contract the resolver depends on.
//
// Versions returns all published releases of a gem sorted descending by
// version (platform variants of one version adjacent, neutral build first)
// so callers can try newest-first without re-sorting. Implementations must
// be safe for concurrent calls on distinct names and should map transport
// failures to ErrUnavailable and unknown gems to ErrNotFound.
type Client interface {
	Versions(ctx context.Context, name string) ([]Release, error)
}

// SortReleases puts releases into the order the Client contract requires:
// descending by version, the platform-neutral build before tagged builds of
// the same version, tagged builds in tag order.
func SortReleases(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		a, b := releases[i], releases[j]
		if c := a.Version.Compare(b.Version); c != 0 {
			return c > 0
		}
		return a.Platform < b.Platform
	})
}
