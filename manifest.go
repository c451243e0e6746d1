package gogemlock

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gemlock/go-gemlock/lockfile"
	"github.com/gemlock/go-gemlock/version"
)

// manifestYAML is the on-disk manifest shape:
//
//	source: https://rubygems.org
//	ruby: ruby 3.2.2p53
//	platforms: [arm64-darwin]
//	gems:
//	  - name: rack
//	    requirement: ">= 2.0"
//	  - name: local_gem
//	    path: ../gems/local_gem
//	    version: 0.1.0
//	    dependencies:
//	      rack: ">= 2.0"
//	  - name: rails_edge
//	    git: https://github.com/rails/rails.git
//	    revision: 5a9f1d2c
//	    version: 7.1.0
type manifestYAML struct {
	Source    string    `yaml:"source,omitempty"`
	Ruby      string    `yaml:"ruby,omitempty"`
	Platforms []string  `yaml:"platforms,omitempty"`
	Gems      []gemYAML `yaml:"gems"`
}

type gemYAML struct {
	Name         string            `yaml:"name"`
	Requirement  string            `yaml:"requirement,omitempty"`
	Git          string            `yaml:"git,omitempty"`
	Path         string            `yaml:"path,omitempty"`
	Revision     string            `yaml:"revision,omitempty"`
	Version      string            `yaml:"version,omitempty"`
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
}

// LoadManifest parses a YAML manifest.
func LoadManifest(data []byte) (*Manifest, error) {
	var raw manifestYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	m := &Manifest{
		Source:    raw.Source,
		Ruby:      raw.Ruby,
		Platforms: raw.Platforms,
	}

	for _, g := range raw.Gems {
		requested, err := decodeGem(g)
		if err != nil {
			return nil, err
		}
		m.Gems = append(m.Gems, requested)
	}

	return m, nil
}

// LoadManifestFile reads and parses a YAML manifest from disk.
func LoadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return LoadManifest(data)
}

func decodeGem(g gemYAML) (Requested, error) {
	if g.Name == "" {
		return Requested{}, fmt.Errorf("manifest gem without a name")
	}

	requested := Requested{Name: g.Name, Source: SourceRegistry}

	if g.Requirement != "" {
		cs, err := version.ParseConstraints(g.Requirement)
		if err != nil {
			return Requested{}, fmt.Errorf("gem %s: %w", g.Name, err)
		}
		requested.Requirement = cs
	}

	switch {
	case g.Git != "" && g.Path != "":
		return Requested{}, fmt.Errorf("gem %s: git and path are mutually exclusive", g.Name)
	case g.Git != "":
		requested.Source = lockfile.SourceGit
		requested.Remote = g.Git
		requested.Revision = g.Revision
	case g.Path != "":
		requested.Source = lockfile.SourcePath
		requested.Remote = g.Path
	}

	if requested.Source != SourceRegistry {
		if g.Version == "" {
			return Requested{}, fmt.Errorf("gem %s: pinned sources require a version", g.Name)
		}
		v, err := version.Parse(g.Version)
		if err != nil {
			return Requested{}, fmt.Errorf("gem %s: %w", g.Name, err)
		}
		requested.Version = v

		for depName, constraint := range g.Dependencies {
			cs, err := version.ParseConstraints(constraint)
			if err != nil {
				return Requested{}, fmt.Errorf("gem %s dependency %s: %w", g.Name, depName, err)
			}
			requested.Dependencies = append(requested.Dependencies, Dependency{
				Name:        depName,
				Requirement: cs,
			})
		}
	}

	return requested, nil
}
