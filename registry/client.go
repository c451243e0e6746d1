package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gemlock/go-gemlock/version"
)

// DefaultURL is the canonical public gem index.
const DefaultURL = "https://rubygems.org"

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second
)

// HTTPClient fetches gem release data over the rubygems versions API with
// per-name caching and connection pooling. It implements Client.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string

	// versionCache holds []Release keyed by gem name.
	versionCache sync.Map
}

var _ Client = (*HTTPClient)(nil)

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithTimeout sets a custom request timeout. Zero or negative values fall
// back to the default timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with index requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// NewHTTPClient creates a client for the given index URL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  false,
	}

	c := &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the index base URL.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// releaseJSON is the wire shape of one release in the versions API.
type releaseJSON struct {
	Number   string `json:"number"`
	Platform string `json:"platform,omitempty"`

	// Dependencies maps gem name to a requirement list such as
	// "~> 1.4" or ">= 1.2, < 2.0".
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Versions fetches all published releases of a gem, newest first.
// Results are cached by name, so repeated calls for the same gem hit the
// network at most once per client.
func (c *HTTPClient) Versions(ctx context.Context, name string) ([]Release, error) {
	if cached, ok := c.versionCache.Load(name); ok {
		return cached.([]Release), nil
	}

	url := fmt.Sprintf("%s/api/v1/versions/%s.json", c.baseURL, name)
	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch versions for %s: %w", name, err)
	}

	var wire []releaseJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse versions for %s: %w", name, err)
	}

	releases, err := decodeReleases(wire)
	if err != nil {
		return nil, fmt.Errorf("decode versions for %s: %w", name, err)
	}

	c.versionCache.Store(name, releases)
	return releases, nil
}

func decodeReleases(wire []releaseJSON) ([]Release, error) {
	releases := make([]Release, 0, len(wire))
	for _, w := range wire {
		v, err := version.Parse(w.Number)
		if err != nil {
			return nil, err
		}

		platform := w.Platform
		if platform == "ruby" {
			// The index reports the neutral build as platform "ruby".
			platform = ""
		}

		deps := make([]Requirement, 0, len(w.Dependencies))
		for depName, constraint := range w.Dependencies {
			cs, err := version.ParseConstraints(constraint)
			if err != nil {
				return nil, fmt.Errorf("dependency %s: %w", depName, err)
			}
			deps = append(deps, Requirement{Name: depName, Constraint: cs})
		}
		sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

		releases = append(releases, Release{
			Version:      v,
			Platform:     platform,
			Dependencies: deps,
		})
	}

	SortReleases(releases)
	return releases, nil
}

// ClearCache removes all cached release data.
func (c *HTTPClient) ClearCache() {
	c.versionCache = sync.Map{}
}

// fetch performs an HTTP GET and maps failures onto the package's sentinel
// errors.
func (c *HTTPClient) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Cancelled and timed-out requests surface as unavailable too; the
		// retry decision belongs to the caller either way.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrUnavailable, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	return body, nil
}
