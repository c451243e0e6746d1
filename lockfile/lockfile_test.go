package lockfile

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemlock/go-gemlock/version"
)

const sampleLockfile = `GEM
  remote: https://rubygems.org/
  specs:
    nokogiri (1.14.0-arm64-darwin)
      racc (~> 1.4)
    racc (1.6.2)
    rack (3.0.8)

PLATFORMS
  arm64-darwin
  ruby

DEPENDENCIES
  nokogiri (~> 1.14)
  rack

RUBY VERSION
   ruby 3.2.2p53

BUNDLED WITH
   2.4.10
`

func mustConstraints(t *testing.T, s string) version.Constraints {
	t.Helper()
	cs, err := version.ParseConstraints(s)
	require.NoError(t, err)
	return cs
}

func TestParseSample(t *testing.T) {
	res, err := Parse([]byte(sampleLockfile))
	require.NoError(t, err)

	require.Len(t, res.Entries, 3)

	nokogiri := res.Entries[0]
	assert.Equal(t, "nokogiri", nokogiri.Name)
	assert.Equal(t, "1.14.0", nokogiri.Version.String())
	assert.Equal(t, "arm64-darwin", nokogiri.Platform)
	assert.Equal(t, SourceRegistry, nokogiri.Source)
	require.Len(t, nokogiri.Dependencies, 1)
	assert.Equal(t, "racc", nokogiri.Dependencies[0].Name)
	assert.Equal(t, "~> 1.4", nokogiri.Dependencies[0].Requirement.String())

	assert.Equal(t, "https://rubygems.org/", res.Remote)
	assert.Equal(t, []string{"arm64-darwin", "ruby"}, res.Platforms)
	assert.Equal(t, "ruby 3.2.2p53", res.RubyVersion)
	assert.Equal(t, "2.4.10", res.BundledWith)

	require.Len(t, res.Dependencies, 2)
	assert.Equal(t, "nokogiri", res.Dependencies[0].Name)
	assert.Equal(t, "~> 1.14", res.Dependencies[0].Requirement.String())
	assert.Equal(t, "rack", res.Dependencies[1].Name)
	assert.Empty(t, res.Dependencies[1].Requirement)
}

func TestParseEmpty(t *testing.T) {
	res, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Empty(t, res.Platforms)
	assert.Empty(t, res.Dependencies)

	res, err = Parse([]byte("\n\n   \n"))
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
}

func TestParseGitAndPathSections(t *testing.T) {
	input := `GIT
  remote: https://github.com/rack/rack.git
  revision: 5a9f1d2cf8b8f4a1e4a9b6
  specs:
    rack (3.1.0)

PATH
  remote: ../gems/local_gem
  specs:
    local_gem (0.1.0)
      rack (>= 2.0)

GEM
  remote: https://rubygems.org/
  specs:

PLATFORMS
  ruby

DEPENDENCIES
  local_gem!
  rack!
`
	res, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)

	local, ok := res.Lookup("local_gem", "")
	require.True(t, ok)
	assert.Equal(t, SourcePath, local.Source)
	assert.Equal(t, "../gems/local_gem", local.Remote)

	rack, ok := res.Lookup("rack", "")
	require.True(t, ok)
	assert.Equal(t, SourceGit, rack.Source)
	assert.Equal(t, "https://github.com/rack/rack.git", rack.Remote)
	assert.Equal(t, "5a9f1d2cf8b8f4a1e4a9b6", rack.Revision)

	require.Len(t, res.Dependencies, 2)
	assert.True(t, res.Dependencies[0].Pinned)
	assert.True(t, res.Dependencies[1].Pinned)
}

func TestParseSyntaxError(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"unknown section", "WHATEVER\n", 1},
		{"orphan indented line", "  floating\n", 1},
		{"bad spec line", "GEM\n  specs:\n    rack 3.0.8\n", 3},
		{"bad version", "GEM\n  specs:\n    rack (3..0)\n", 3},
		{"dep before entry", "GEM\n  specs:\n      racc (~> 1.4)\n", 3},
		{"bad indent", "GEM\n   odd:\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.line, syntaxErr.Line)
			assert.NotEmpty(t, syntaxErr.Text)
		})
	}
}

func TestPlatformSuffixSplitting(t *testing.T) {
	tests := []struct {
		inner        string
		wantVersion  string
		wantPlatform string
	}{
		{"1.14.0", "1.14.0", ""},
		{"1.14.0-arm64-darwin", "1.14.0", "arm64-darwin"},
		{"1.14.0-x86_64-linux", "1.14.0", "x86_64-linux"},
		{"1.14.0-java", "1.14.0", "java"},
		// A purely numeric trailing segment is part of the version.
		{"1.14.0-1", "1.14.0-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.inner, func(t *testing.T) {
			ver, platform := splitPlatform(tt.inner)
			assert.Equal(t, tt.wantVersion, ver)
			assert.Equal(t, tt.wantPlatform, platform)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	res, err := Parse([]byte(sampleLockfile))
	require.NoError(t, err)

	serialized := res.Serialize()
	assert.Equal(t, sampleLockfile, string(serialized))

	reparsed, err := Parse(serialized)
	require.NoError(t, err)
	assert.True(t, res.Equal(reparsed))
}

// Round-trip content equality must hold regardless of the order entries
// were inserted in.
func TestRoundTripInsertionOrder(t *testing.T) {
	build := func(order []int) *Resolution {
		entries := []Entry{
			{Name: "rack", Version: version.MustParse("3.0.8"), Source: SourceRegistry},
			{Name: "racc", Version: version.MustParse("1.6.2"), Source: SourceRegistry},
			{
				Name:     "nokogiri",
				Version:  version.MustParse("1.14.0"),
				Platform: "arm64-darwin",
				Source:   SourceRegistry,
				Dependencies: []Dependency{
					{Name: "racc", Requirement: mustConstraints(t, "~> 1.4")},
				},
			},
		}
		res := New()
		res.Remote = "https://rubygems.org/"
		res.Platforms = []string{"ruby", "arm64-darwin"}
		for _, i := range order {
			res.Entries = append(res.Entries, entries[i])
		}
		res.Dependencies = []Direct{
			{Name: "rack"},
			{Name: "nokogiri", Requirement: mustConstraints(t, "~> 1.14")},
		}
		return res
	}

	a := build([]int{0, 1, 2})
	b := build([]int{2, 0, 1})

	assert.Equal(t, a.String(), b.String())

	reparsed, err := Parse(a.Serialize())
	require.NoError(t, err)
	assert.True(t, a.Equal(reparsed))
	assert.True(t, b.Equal(reparsed))
}

func TestGitPathRoundTrip(t *testing.T) {
	res := New()
	res.Remote = "https://rubygems.org/"
	res.Platforms = []string{"ruby"}
	res.Entries = []Entry{
		{
			Name:     "rack",
			Version:  version.MustParse("3.1.0"),
			Source:   SourceGit,
			Remote:   "https://github.com/rack/rack.git",
			Revision: "5a9f1d2c",
		},
		{
			Name:    "local_gem",
			Version: version.MustParse("0.1.0"),
			Source:  SourcePath,
			Remote:  "../gems/local_gem",
			Dependencies: []Dependency{
				{Name: "rack", Requirement: mustConstraints(t, ">= 2.0")},
			},
		},
	}
	res.Dependencies = []Direct{
		{Name: "rack", Pinned: true},
		{Name: "local_gem", Pinned: true},
	}

	reparsed, err := Parse(res.Serialize())
	require.NoError(t, err)
	assert.True(t, res.Equal(reparsed))
	require.NoError(t, reparsed.Validate())
}

func TestValidate(t *testing.T) {
	res := New()
	res.Entries = []Entry{
		{Name: "a", Version: version.MustParse("1.0"), Dependencies: []Dependency{{Name: "b"}}},
	}
	err := res.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not resolved")

	res.Entries = append(res.Entries, Entry{Name: "b", Version: version.MustParse("2.0")})
	require.NoError(t, res.Validate())

	res.Entries = append(res.Entries, Entry{Name: "b", Version: version.MustParse("2.1")})
	err = res.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entry")
}

func TestLookupPlatformPreference(t *testing.T) {
	res := New()
	res.Entries = []Entry{
		{Name: "nokogiri", Version: version.MustParse("1.14.0")},
		{Name: "nokogiri", Version: version.MustParse("1.14.0"), Platform: "arm64-darwin"},
	}

	tagged, ok := res.Lookup("nokogiri", "arm64-darwin")
	require.True(t, ok)
	assert.Equal(t, "arm64-darwin", tagged.Platform)

	generic, ok := res.Lookup("nokogiri", "x86_64-linux")
	require.True(t, ok)
	assert.Empty(t, generic.Platform)

	_, ok = res.Lookup("missing", "")
	assert.False(t, ok)
}

func TestCompareDiff(t *testing.T) {
	old, err := Parse([]byte(sampleLockfile))
	require.NoError(t, err)

	updated := old.clone()
	for i := range updated.Entries {
		if updated.Entries[i].Name == "rack" {
			updated.Entries[i].Version = version.MustParse("3.1.0")
		}
	}
	updated.Entries = append(updated.Entries, Entry{
		Name:    "rake",
		Version: version.MustParse("13.0.6"),
		Source:  SourceRegistry,
	})

	diff := Compare(old, updated)
	assert.False(t, diff.IsEmpty())
	assert.Equal(t, []string{"rake"}, diff.Added)
	assert.Empty(t, diff.Removed)
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, VersionChange{Name: "rack", OldVersion: "3.0.8", NewVersion: "3.1.0"}, diff.Changed[0])

	same := Compare(old, old)
	assert.True(t, same.IsEmpty())
}

func TestReadWriteFile(t *testing.T) {
	res, err := Parse([]byte(sampleLockfile))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "Gemfile.lock")
	require.NoError(t, res.WriteFile(path))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, res.Equal(loaded))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.lock"))
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*SyntaxError)))
}

func TestWriteTo(t *testing.T) {
	res, err := Parse([]byte(sampleLockfile))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := res.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, sampleLockfile, buf.String())
}
