package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newIndexServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/versions/rack.json", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		fmt.Fprint(w, `[
			{"number": "2.2.6", "platform": "ruby"},
			{"number": "3.0.8", "platform": "ruby"}
		]`)
	})
	mux.HandleFunc("/api/v1/versions/nokogiri.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"number": "1.14.0", "platform": "arm64-darwin", "dependencies": {"racc": "~> 1.4"}},
			{"number": "1.14.0", "platform": "ruby", "dependencies": {"racc": "~> 1.4"}},
			{"number": "1.13.10", "platform": "ruby", "dependencies": {"racc": "~> 1.4"}}
		]`)
	})
	mux.HandleFunc("/api/v1/versions/flaky.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestVersionsSortedDescending(t *testing.T) {
	server := newIndexServer(t, nil)
	client := NewHTTPClient(server.URL)

	releases, err := client.Versions(context.Background(), "rack")
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}

	if len(releases) != 2 {
		t.Fatalf("len(releases) = %d, want 2", len(releases))
	}
	if got := releases[0].Version.String(); got != "3.0.8" {
		t.Errorf("releases[0] = %s, want 3.0.8", got)
	}
	if got := releases[1].Version.String(); got != "2.2.6" {
		t.Errorf("releases[1] = %s, want 2.2.6", got)
	}
}

func TestVersionsPlatformVariants(t *testing.T) {
	server := newIndexServer(t, nil)
	client := NewHTTPClient(server.URL)

	releases, err := client.Versions(context.Background(), "nokogiri")
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}

	if len(releases) != 3 {
		t.Fatalf("len(releases) = %d, want 3", len(releases))
	}
	// Neutral build first within a version, then tagged builds.
	if releases[0].Platform != "" || releases[0].Version.String() != "1.14.0" {
		t.Errorf("releases[0] = %s/%q, want 1.14.0 neutral", releases[0].Version, releases[0].Platform)
	}
	if releases[1].Platform != "arm64-darwin" {
		t.Errorf("releases[1].Platform = %q, want arm64-darwin", releases[1].Platform)
	}

	deps := releases[0].Dependencies
	if len(deps) != 1 || deps[0].Name != "racc" || deps[0].Constraint.String() != "~> 1.4" {
		t.Errorf("dependencies = %+v, want racc ~> 1.4", deps)
	}
}

func TestVersionsCaching(t *testing.T) {
	var hits atomic.Int64
	server := newIndexServer(t, &hits)
	client := NewHTTPClient(server.URL)

	for i := 0; i < 3; i++ {
		if _, err := client.Versions(context.Background(), "rack"); err != nil {
			t.Fatalf("Versions() error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("index hits = %d, want 1", got)
	}

	client.ClearCache()
	if _, err := client.Versions(context.Background(), "rack"); err != nil {
		t.Fatalf("Versions() after ClearCache error: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("index hits after ClearCache = %d, want 2", got)
	}
}

func TestVersionsErrors(t *testing.T) {
	server := newIndexServer(t, nil)
	client := NewHTTPClient(server.URL)

	_, err := client.Versions(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing gem error = %v, want ErrNotFound", err)
	}

	_, err = client.Versions(context.Background(), "flaky")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("server failure error = %v, want ErrUnavailable", err)
	}
}

func TestVersionsContextCancelled(t *testing.T) {
	server := newIndexServer(t, nil)
	client := NewHTTPClient(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Versions(ctx, "rack")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("cancelled fetch error = %v, want ErrUnavailable", err)
	}
}

func TestClientOptions(t *testing.T) {
	custom := &http.Client{}
	client := NewHTTPClient("https://example.org/", WithHTTPClient(custom), WithTimeout(3*time.Second), WithUserAgent("gemlock-test"))

	if client.BaseURL() != "https://example.org" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", client.BaseURL())
	}
	if client.client != custom {
		t.Error("WithHTTPClient not applied")
	}
	if client.client.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", client.client.Timeout)
	}
	if client.userAgent != "gemlock-test" {
		t.Errorf("userAgent = %q", client.userAgent)
	}
}
