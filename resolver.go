package gogemlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gemlock/go-gemlock/graph"
	"github.com/gemlock/go-gemlock/lockfile"
	"github.com/gemlock/go-gemlock/registry"
	"github.com/gemlock/go-gemlock/version"
)

// candidate is one assignable variant of a gem: a registry release, or the
// fixed materialization of a git/path pin.
type candidate struct {
	release registry.Release
	pin     *Requested // non-nil for git/path pins
}

// frame is one decision point of the search: the gem being decided, the
// candidates not yet tried and the requirement-table mark taken before the
// current candidate's merge.
type frame struct {
	name      string
	remaining []candidate
	mark      graph.Mark
}

// run holds the state of a single resolution. It is exclusively owned by
// one Resolve call; nothing is shared between concurrent resolutions.
type run struct {
	cfg      *resolverConfig
	manifest *Manifest
	fetch    *fetcher
	g        *graph.Graph
	log      *slog.Logger

	// pins maps gem name to its git/path request.
	pins map[string]*Requested

	// chosen maps assigned gem names to the candidate that was assigned,
	// kept so the final lockfile can carry each entry's dependency
	// constraints.
	chosen map[string]candidate

	// conflicts accumulates the exhausted names seen on the way to a
	// failed resolution, first chain per name.
	conflicts map[string]Conflict
}

func newRun(manifest *Manifest, client registry.Client, cfg *resolverConfig) *run {
	r := &run{
		cfg:       cfg,
		manifest:  manifest,
		fetch:     newFetcher(client, cfg.prefetch),
		g:         graph.New(),
		log:       cfg.log(),
		pins:      make(map[string]*Requested),
		chosen:    make(map[string]candidate),
		conflicts: make(map[string]Conflict),
	}

	for i := range manifest.Gems {
		requested := &manifest.Gems[i]
		r.g.AddRequirement(requested.Name, graph.Requirement{
			Requirer:   graph.ManifestRequirer,
			Constraint: requested.Requirement,
		})
		if requested.Source != SourceRegistry {
			r.pins[requested.Name] = requested
		}
	}

	return r
}

// solve runs the depth-first backtracking search. On success the graph
// holds a complete assignment; on exhaustion a *ConflictReport is returned,
// and pin or registry failures abort with their own errors.
func (r *run) solve(ctx context.Context) error {
	var stack []*frame

	for {
		unassigned := r.g.Unassigned()
		if len(unassigned) == 0 {
			return nil
		}

		name, candidates, err := r.pick(ctx, unassigned)
		if err != nil {
			return err
		}
		r.log.Debug("deciding gem", "name", name, "candidates", len(candidates))
		stack = append(stack, &frame{name: name, remaining: candidates})

		// Try candidates at the top of the stack, backtracking through
		// earlier decisions as frames exhaust.
		descended := false
		for !descended {
			top := stack[len(stack)-1]

			if len(top.remaining) == 0 {
				r.recordConflict(top.name, "no candidate satisfies the requirements")
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return r.report()
				}
				r.failTop(stack[len(stack)-1])
				continue
			}

			next := top.remaining[0]
			top.remaining = top.remaining[1:]
			top.mark = r.g.Mark()
			if r.tryAssign(ctx, top.name, next) {
				descended = true
				continue
			}
			r.g.Rewind(top.mark)
			r.g.Unassign(top.name)
		}
	}
}

// failTop undoes a frame's currently assigned candidate so its next
// candidate can be tried.
func (r *run) failTop(f *frame) {
	r.g.Rewind(f.mark)
	r.g.Unassign(f.name)
	delete(r.chosen, f.name)
}

// pick chooses the next gem to decide: the unassigned name with the fewest
// viable candidates (most-constrained-first), ties broken by name for
// determinism. It returns the chosen name together with its candidate list,
// already filtered and ordered newest-first.
func (r *run) pick(ctx context.Context, unassigned []string) (string, []candidate, error) {
	// Let independent fetches overlap before the sequential scan blocks
	// on the first one. Pinned gems never touch the registry.
	toFetch := make([]string, 0, len(unassigned))
	for _, name := range unassigned {
		if _, pinned := r.pins[name]; !pinned {
			toFetch = append(toFetch, name)
		}
	}
	r.fetch.prefetch(ctx, toFetch)

	var (
		best      string
		bestCands []candidate
		found     bool
	)
	for _, name := range unassigned {
		cands, err := r.candidatesFor(ctx, name)
		if err != nil {
			return "", nil, err
		}
		if !found || len(cands) < len(bestCands) {
			best, bestCands, found = name, cands, true
		}
	}
	return best, bestCands, nil
}

// candidatesFor builds the viable candidate list for a gem under the
// current requirement table.
func (r *run) candidatesFor(ctx context.Context, name string) ([]candidate, error) {
	merged := r.g.Constraints(name)

	if pin, ok := r.pins[name]; ok {
		if merged.SatisfiedBy(pin.Version) {
			return []candidate{{pin: pin}}, nil
		}
		if err := r.pinConflict(name, pin); err != nil {
			return nil, err
		}
		// The violated constraints came from tentative decisions and may
		// be rewound; treat the pin as exhausted for now.
		return nil, nil
	}

	releases, err := r.fetch.get(ctx, name)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		// Terminal for this name, but only for the current branch: an
		// alternate version of a dependent may stop requiring it.
		r.recordConflict(name, "not found in the registry")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}

	return selectCandidates(releases, merged, r.cfg.targetPlatform), nil
}

// pinConflict decides whether a violated pin is fatal. A pin that fails the
// manifest's own constraints can never succeed; a pin violated only by
// tentative requirements may become viable after backtracking.
func (r *run) pinConflict(name string, pin *Requested) error {
	reqs := r.g.Requirements(name)
	for _, req := range reqs {
		if req.Requirer != graph.ManifestRequirer {
			continue
		}
		if !req.Constraint.SatisfiedBy(pin.Version) {
			return &PinConflictError{
				Name:         name,
				Version:      pin.Version,
				Requirements: append([]graph.Requirement(nil), reqs...),
			}
		}
	}
	return nil
}

// selectCandidates filters releases to those satisfying the merged
// constraints and resolves platform variants: for each version the variant
// matching the target platform wins, then the neutral variant; versions
// published only for other platforms are skipped.
func selectCandidates(releases []registry.Release, merged version.Constraints, targetPlatform string) []candidate {
	var out []candidate

	// Releases arrive sorted descending with variants of one version
	// adjacent, neutral variant first.
	for i := 0; i < len(releases); {
		v := releases[i].Version
		var neutral, exact *registry.Release
		for ; i < len(releases) && releases[i].Version.Equal(v); i++ {
			rel := &releases[i]
			switch rel.Platform {
			case "":
				neutral = rel
			case targetPlatform:
				exact = rel
			}
		}

		if !merged.SatisfiedBy(v) {
			continue
		}
		switch {
		case exact != nil && targetPlatform != "":
			out = append(out, candidate{release: *exact})
		case neutral != nil:
			out = append(out, candidate{release: *neutral})
		}
	}
	return out
}

// tryAssign tentatively assigns a candidate and merges its requirements.
// It fails fast, without recursing, when the merge invalidates an already
// assigned gem or makes some gem's merged constraints unsatisfiable.
// The caller rewinds on failure.
func (r *run) tryAssign(ctx context.Context, name string, c candidate) bool {
	deps := candidateDeps(c)

	depNames := make([]string, 0, len(deps))
	for _, d := range deps {
		depNames = append(depNames, d.Name)
	}

	r.g.Assign(graph.Assignment{
		Name:         name,
		Version:      candidateVersion(c),
		Platform:     c.release.Platform,
		Dependencies: depNames,
		Pinned:       c.pin != nil,
	})
	for _, d := range deps {
		r.g.AddRequirement(d.Name, graph.Requirement{Requirer: name, Constraint: d.Requirement})
	}

	// Re-check assigned gems against the widened table before recursing.
	if violated := r.g.Violations(); len(violated) > 0 {
		for _, v := range violated {
			r.recordConflict(v, "assigned version invalidated by "+name)
		}
		r.log.Debug("candidate rejected", "name", name, "version", candidateVersion(c), "violates", violated)
		return false
	}

	// Cheap feasibility check on the names this merge touched.
	for _, d := range deps {
		if _, assigned := r.g.Assigned(d.Name); assigned {
			continue
		}
		if !r.g.Constraints(d.Name).Intersects(nil) {
			r.recordConflict(d.Name, "requirements cannot be reconciled")
			r.log.Debug("candidate rejected", "name", name, "version", candidateVersion(c), "infeasible", d.Name)
			return false
		}
	}

	r.chosen[name] = c

	speculative := make([]string, 0, len(depNames))
	for _, dep := range depNames {
		if _, pinned := r.pins[dep]; !pinned {
			speculative = append(speculative, dep)
		}
	}
	r.fetch.prefetch(ctx, speculative)
	return true
}

func candidateVersion(c candidate) version.Version {
	if c.pin != nil {
		return c.pin.Version
	}
	return c.release.Version
}

// candidateDeps returns the requirements a candidate's version declares,
// sorted by name.
func candidateDeps(c candidate) []Dependency {
	var deps []Dependency
	if c.pin != nil {
		deps = append(deps, c.pin.Dependencies...)
	} else {
		for _, d := range c.release.Dependencies {
			deps = append(deps, Dependency{Name: d.Name, Requirement: d.Constraint})
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}

func (r *run) recordConflict(name, reason string) {
	if _, exists := r.conflicts[name]; exists {
		return
	}
	r.conflicts[name] = Conflict{Conflict: r.g.ConflictFor(name), Reason: reason}
}

// report assembles the ConflictReport once every alternative is exhausted.
func (r *run) report() error {
	names := make([]string, 0, len(r.conflicts))
	for name := range r.conflicts {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &ConflictReport{}
	for _, name := range names {
		report.Conflicts = append(report.Conflicts, r.conflicts[name])
	}
	return report
}

// buildResolution converts a completed assignment into a lockfile
// Resolution in canonical order.
func (r *run) buildResolution() (*lockfile.Resolution, error) {
	res := lockfile.New()

	res.Remote = r.manifest.Source
	if res.Remote == "" {
		res.Remote = registry.DefaultURL + "/"
	}
	res.RubyVersion = r.manifest.Ruby
	res.BundledWith = r.cfg.toolVersion

	platforms := map[string]bool{}
	for _, p := range r.manifest.Platforms {
		platforms[p] = true
	}
	if len(platforms) == 0 {
		platforms["ruby"] = true
	}

	for _, a := range r.g.Assignments() {
		c := r.chosen[a.Name]

		entry := lockfile.Entry{
			Name:     a.Name,
			Version:  a.Version,
			Platform: a.Platform,
			Source:   lockfile.SourceRegistry,
		}
		if c.pin != nil {
			entry.Source = c.pin.Source
			entry.Remote = c.pin.Remote
			entry.Revision = c.pin.Revision
		}
		for _, d := range candidateDeps(c) {
			entry.Dependencies = append(entry.Dependencies, lockfile.Dependency{
				Name:        d.Name,
				Requirement: d.Requirement,
			})
		}
		if a.Platform != "" {
			platforms[a.Platform] = true
		}

		res.Entries = append(res.Entries, entry)
	}

	for p := range platforms {
		res.Platforms = append(res.Platforms, p)
	}

	for _, g := range r.manifest.Gems {
		res.Dependencies = append(res.Dependencies, lockfile.Direct{
			Name:        g.Name,
			Requirement: g.Requirement,
			Pinned:      g.Source != SourceRegistry,
		})
	}

	res.Sort()
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("resolution invariant violated: %w", err)
	}
	return res, nil
}
