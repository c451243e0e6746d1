package gogemlock

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gemlock/go-gemlock/registry"
)

// fetcher wraps a registry client with a request-coalescing cache owned by
// a single resolution run. Concurrent requesters for one name share a
// single in-flight fetch; completed results (including terminal not-found
// results) are cached for the life of the run, so the registry sees at most
// one fetch per name.
type fetcher struct {
	client registry.Client
	group  singleflight.Group

	mu    sync.Mutex
	done  map[string]fetchResult
	inUse chan struct{} // bounds speculative prefetch goroutines
}

type fetchResult struct {
	releases []registry.Release
	err      error
}

func newFetcher(client registry.Client, prefetch int) *fetcher {
	return &fetcher{
		client: client,
		done:   make(map[string]fetchResult),
		inUse:  make(chan struct{}, prefetch),
	}
}

// get returns the releases for a gem, fetching at most once per name.
func (f *fetcher) get(ctx context.Context, name string) ([]registry.Release, error) {
	f.mu.Lock()
	if res, ok := f.done[name]; ok {
		f.mu.Unlock()
		return res.releases, res.err
	}
	f.mu.Unlock()

	v, err, _ := f.group.Do(name, func() (any, error) {
		// Re-check under the flight: a fetch may have completed between
		// the cache miss above and entering the group.
		f.mu.Lock()
		if res, ok := f.done[name]; ok {
			f.mu.Unlock()
			return res.releases, res.err
		}
		f.mu.Unlock()

		releases, err := f.client.Versions(ctx, name)
		if err != nil && !errors.Is(err, registry.ErrNotFound) {
			// Transient failures are not cached; a later caller may retry.
			return nil, err
		}

		f.mu.Lock()
		f.done[name] = fetchResult{releases: releases, err: err}
		f.mu.Unlock()
		return releases, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]registry.Release), nil
}

// prefetch starts speculative fetches for names the search just discovered,
// so the next decision does not block on the network. Failures are left for
// the synchronous get to observe.
func (f *fetcher) prefetch(ctx context.Context, names []string) {
	for _, name := range names {
		f.mu.Lock()
		_, fetched := f.done[name]
		f.mu.Unlock()
		if fetched {
			continue
		}

		select {
		case f.inUse <- struct{}{}:
		default:
			// Prefetch budget exhausted; the fetch will happen on demand.
			continue
		}

		go func(name string) {
			defer func() { <-f.inUse }()
			_, _ = f.get(ctx, name)
		}(name)
	}
}
