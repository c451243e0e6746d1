package gogemlock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `source: https://rubygems.org
ruby: ruby 3.2.2p53
platforms:
  - arm64-darwin
gems:
  - name: rack
    requirement: ">= 2.0"
  - name: nokogiri
  - name: local_gem
    path: ../gems/local_gem
    version: 0.1.0
    dependencies:
      rack: ">= 2.0"
  - name: rails_edge
    git: https://github.com/rails/rails.git
    revision: 5a9f1d2c
    version: 7.1.0
`

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "https://rubygems.org", m.Source)
	assert.Equal(t, "ruby 3.2.2p53", m.Ruby)
	assert.Equal(t, []string{"arm64-darwin"}, m.Platforms)
	require.Len(t, m.Gems, 4)

	rack := m.Gems[0]
	assert.Equal(t, SourceRegistry, rack.Source)
	assert.Equal(t, ">= 2.0", rack.Requirement.String())

	nokogiri := m.Gems[1]
	assert.Empty(t, nokogiri.Requirement)

	local := m.Gems[2]
	assert.Equal(t, SourcePath, local.Source)
	assert.Equal(t, "../gems/local_gem", local.Remote)
	assert.Equal(t, "0.1.0", local.Version.String())
	require.Len(t, local.Dependencies, 1)
	assert.Equal(t, "rack", local.Dependencies[0].Name)

	git := m.Gems[3]
	assert.Equal(t, SourceGit, git.Source)
	assert.Equal(t, "5a9f1d2c", git.Revision)

	req, ok := m.Requirement("rack")
	require.True(t, ok)
	assert.Equal(t, ">= 2.0", req.String())
	_, ok = m.Requirement("missing")
	assert.False(t, ok)
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid yaml", "gems: [\n"},
		{"nameless gem", "gems:\n  - requirement: \">= 1.0\"\n"},
		{"bad requirement", "gems:\n  - name: rack\n    requirement: \">= 1..0\"\n"},
		{"git and path", "gems:\n  - name: x\n    git: a\n    path: b\n    version: 1.0\n"},
		{"pin without version", "gems:\n  - name: x\n    git: https://example.org/x.git\n"},
		{"pin with bad version", "gems:\n  - name: x\n    path: ./x\n    version: not a version\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadManifestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gems.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m, err := LoadManifestFile(path)
	require.NoError(t, err)
	assert.Len(t, m.Gems, 4)

	_, err = LoadManifestFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
