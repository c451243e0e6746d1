// Package gogemlock resolves gem dependency manifests into reproducible
// lockfiles.
//
// Given a manifest of requested gems with version constraints, the resolver
// runs a depth-first backtracking search over the registry index and
// produces a Resolution: an exact, mutually consistent version for every
// transitive dependency, serialized in the Bundler-compatible Gemfile.lock
// format.
//
// # Quick start
//
//	client := registry.NewHTTPClient(registry.DefaultURL)
//	manifest := &gogemlock.Manifest{
//	    Gems: []gogemlock.Requested{{Name: "rack"}},
//	}
//	res, err := gogemlock.Resolve(ctx, manifest, client)
//	if err != nil {
//	    var report *gogemlock.ConflictReport
//	    if errors.As(err, &report) {
//	        // report.Conflicts carries the full requirer chains.
//	    }
//	    return err
//	}
//	err = res.WriteFile("Gemfile.lock")
//
// # Determinism
//
// Resolution is deterministic: the same manifest against the same registry
// responses produces a Resolution with identical content on every run and
// machine, and the lockfile serializer emits it in canonical order, so
// generated lockfiles are byte-for-byte reproducible.
//
// # Error handling
//
// Malformed input surfaces as *version.MalformedVersionError,
// *version.UnknownOperatorError or *lockfile.SyntaxError. A search that
// exhausts every alternative returns *ConflictReport; a git or path pin
// that violates the manifest's own constraints returns *PinConflictError
// without backtracking. Registry outages abort the run with
// ErrRegistryUnavailable; the resolver never retries internally.
package gogemlock

import (
	"context"
	"fmt"

	"github.com/gemlock/go-gemlock/lockfile"
	"github.com/gemlock/go-gemlock/registry"
)

// Resolve computes an exact version assignment for every gem the manifest
// requires, directly or transitively, and returns it as a lockfile
// Resolution in canonical order.
//
// The search holds one decision per gem name, tries newest candidates
// first and backtracks chronologically on dead ends. Registry fetches for
// distinct names proceed concurrently, with at most one in-flight fetch
// per name for the whole run.
func Resolve(ctx context.Context, manifest *Manifest, client registry.Client, opts ...Option) (*lockfile.Resolution, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("registry client is nil")
	}

	cfg, err := newResolverConfig(opts)
	if err != nil {
		return nil, err
	}

	r := newRun(manifest, client, cfg)
	if err := r.solve(ctx); err != nil {
		return nil, err
	}
	return r.buildResolution()
}

// ResolveFile loads a YAML manifest from disk and resolves it.
func ResolveFile(ctx context.Context, path string, client registry.Client, opts ...Option) (*lockfile.Resolution, error) {
	manifest, err := LoadManifestFile(path)
	if err != nil {
		return nil, err
	}
	return Resolve(ctx, manifest, client, opts...)
}
