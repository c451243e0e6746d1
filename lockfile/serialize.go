package lockfile

import (
	"sort"
	"strings"
)

// Serialize renders the resolution in canonical lockfile form. Sections are
// emitted in a fixed order and all entries are sorted, so two resolutions
// with equal content always serialize to identical bytes.
func (r *Resolution) Serialize() []byte {
	c := r.clone()
	c.Sort()

	var b strings.Builder

	writeSourceBlocks(&b, c, SourceGit)
	writeSourceBlocks(&b, c, SourcePath)
	writeGemBlock(&b, c)
	writePlatforms(&b, c)
	writeDependencies(&b, c)

	if c.RubyVersion != "" {
		b.WriteString(sectionRubyVersion + "\n   " + c.RubyVersion + "\n\n")
	}
	if c.BundledWith != "" {
		b.WriteString(sectionBundledWith + "\n   " + c.BundledWith + "\n")
	}

	return []byte(b.String())
}

// String returns the canonical lockfile text.
func (r *Resolution) String() string { return string(r.Serialize()) }

// writeSourceBlocks emits one GIT or PATH section per distinct remote,
// ordered by remote URL.
func writeSourceBlocks(b *strings.Builder, r *Resolution, kind SourceKind) {
	byRemote := make(map[string][]Entry)
	for _, e := range r.Entries {
		if e.Source == kind {
			byRemote[e.Remote] = append(byRemote[e.Remote], e)
		}
	}
	if len(byRemote) == 0 {
		return
	}

	remotes := make([]string, 0, len(byRemote))
	for remote := range byRemote {
		remotes = append(remotes, remote)
	}
	sort.Strings(remotes)

	for _, remote := range remotes {
		entries := byRemote[remote]
		b.WriteString(kind.String() + "\n")
		b.WriteString("  remote: " + remote + "\n")
		if kind == SourceGit && entries[0].Revision != "" {
			b.WriteString("  revision: " + entries[0].Revision + "\n")
		}
		b.WriteString("  specs:\n")
		for _, e := range entries {
			writeSpec(b, e)
		}
		b.WriteString("\n")
	}
}

func writeGemBlock(b *strings.Builder, r *Resolution) {
	b.WriteString(sectionGem + "\n")
	if r.Remote != "" {
		b.WriteString("  remote: " + r.Remote + "\n")
	}
	b.WriteString("  specs:\n")
	for _, e := range r.Entries {
		if e.Source == SourceRegistry {
			writeSpec(b, e)
		}
	}
	b.WriteString("\n")
}

func writeSpec(b *strings.Builder, e Entry) {
	b.WriteString("    " + e.Name + " (" + e.Version.String())
	if e.Platform != "" {
		b.WriteString("-" + e.Platform)
	}
	b.WriteString(")\n")
	for _, d := range e.Dependencies {
		b.WriteString("      " + d.Name)
		if len(d.Requirement) > 0 {
			b.WriteString(" (" + d.Requirement.String() + ")")
		}
		b.WriteString("\n")
	}
}

func writePlatforms(b *strings.Builder, r *Resolution) {
	b.WriteString(sectionPlatforms + "\n")
	for _, platform := range r.Platforms {
		b.WriteString("  " + platform + "\n")
	}
	b.WriteString("\n")
}

func writeDependencies(b *strings.Builder, r *Resolution) {
	b.WriteString(sectionDependencies + "\n")
	for _, d := range r.Dependencies {
		b.WriteString("  " + d.Name)
		if len(d.Requirement) > 0 {
			b.WriteString(" (" + d.Requirement.String() + ")")
		}
		if d.Pinned {
			b.WriteString("!")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
