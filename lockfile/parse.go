package lockfile

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/gemlock/go-gemlock/version"
)

// SyntaxError reports a lockfile line that does not match the shape its
// section requires.
type SyntaxError struct {
	Line    int
	Text    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("lockfile line %d: %s: %q", e.Line, e.Message, e.Text)
}

// Section keywords, case-sensitive, at column zero.
const (
	sectionGem          = "GEM"
	sectionGit          = "GIT"
	sectionPath         = "PATH"
	sectionPlatforms    = "PLATFORMS"
	sectionDependencies = "DEPENDENCIES"
	sectionRubyVersion  = "RUBY VERSION"
	sectionBundledWith  = "BUNDLED WITH"
)

// parser carries the state of a single parse pass.
type parser struct {
	res     *Resolution
	section string

	// Source context of the current GIT/PATH/GEM block.
	source   SourceKind
	remote   string
	revision string

	// entry indexes the spec the next dependency line attaches to,
	// -1 when no entry is open.
	entry int
}

// Parse parses lockfile text into a Resolution. Empty input yields an empty
// Resolution. The result is in canonical order.
func Parse(data []byte) (*Resolution, error) {
	p := &parser{res: New(), entry: -1}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		if err := p.line(lineno, line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}

	p.res.Sort()
	return p.res, nil
}

func (p *parser) line(lineno int, line string) error {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	body := line[indent:]

	if indent == 0 {
		return p.sectionHeader(lineno, line, body)
	}

	switch p.section {
	case sectionGem, sectionGit, sectionPath:
		return p.sourceLine(lineno, line, indent, body)
	case sectionPlatforms:
		p.res.Platforms = append(p.res.Platforms, body)
		return nil
	case sectionDependencies:
		return p.dependencyLine(lineno, line, body)
	case sectionRubyVersion:
		p.res.RubyVersion = body
		return nil
	case sectionBundledWith:
		p.res.BundledWith = body
		return nil
	}
	return &SyntaxError{Line: lineno, Text: line, Message: "indented line outside any section"}
}

func (p *parser) sectionHeader(lineno int, line, body string) error {
	p.entry = -1
	p.remote = ""
	p.revision = ""

	switch body {
	case sectionGem:
		p.source = SourceRegistry
	case sectionGit:
		p.source = SourceGit
	case sectionPath:
		p.source = SourcePath
	case sectionPlatforms, sectionDependencies, sectionRubyVersion, sectionBundledWith:
	default:
		return &SyntaxError{Line: lineno, Text: line, Message: "unknown section"}
	}
	p.section = body
	return nil
}

// sourceLine handles the body of a GEM, GIT or PATH section: metadata lines
// at two spaces, spec entries at four, their dependencies at six.
func (p *parser) sourceLine(lineno int, line string, indent int, body string) error {
	switch indent {
	case 2:
		key, value, ok := strings.Cut(body, ":")
		if !ok {
			return &SyntaxError{Line: lineno, Text: line, Message: "expected \"key: value\" or \"specs:\""}
		}
		switch key {
		case "remote":
			p.remote = strings.TrimSpace(value)
			if p.source == SourceRegistry {
				p.res.Remote = p.remote
			}
		case "revision":
			p.revision = strings.TrimSpace(value)
		case "specs":
			// Entries follow.
		}
		return nil

	case 4:
		name, ver, platform, err := parseSpec(body)
		if err != nil {
			return &SyntaxError{Line: lineno, Text: line, Message: err.Error()}
		}
		p.res.Entries = append(p.res.Entries, Entry{
			Name:     name,
			Version:  ver,
			Platform: platform,
			Source:   p.source,
			Remote:   entryRemote(p.source, p.remote),
			Revision: p.revision,
		})
		p.entry = len(p.res.Entries) - 1
		return nil

	case 6:
		if p.entry < 0 {
			return &SyntaxError{Line: lineno, Text: line, Message: "dependency line without a spec entry"}
		}
		dep, err := parseDependency(body)
		if err != nil {
			return &SyntaxError{Line: lineno, Text: line, Message: err.Error()}
		}
		entry := &p.res.Entries[p.entry]
		entry.Dependencies = append(entry.Dependencies, dep)
		return nil
	}
	return &SyntaxError{Line: lineno, Text: line, Message: "unexpected indentation"}
}

// entryRemote drops the remote for registry entries: the GEM remote is
// recorded once on the Resolution, not per entry.
func entryRemote(source SourceKind, remote string) string {
	if source == SourceRegistry {
		return ""
	}
	return remote
}

func (p *parser) dependencyLine(lineno int, line, body string) error {
	pinned := strings.HasSuffix(body, "!")
	body = strings.TrimSuffix(body, "!")

	dep, err := parseDependency(body)
	if err != nil {
		return &SyntaxError{Line: lineno, Text: line, Message: err.Error()}
	}
	p.res.Dependencies = append(p.res.Dependencies, Direct{
		Name:        dep.Name,
		Requirement: dep.Requirement,
		Pinned:      pinned,
	})
	return nil
}

// parseSpec parses a spec entry line body: "name (version)" or
// "name (version-platform)".
func parseSpec(body string) (name string, ver version.Version, platform string, err error) {
	name, inner, ok := splitParens(body)
	if !ok {
		return "", version.Version{}, "", fmt.Errorf("expected \"name (version)\"")
	}

	verText, platform := splitPlatform(inner)
	ver, err = version.Parse(verText)
	if err != nil {
		return "", version.Version{}, "", err
	}
	return name, ver, platform, nil
}

// splitPlatform splits "1.14.0-arm64-darwin" into version and platform tag.
// The text after the last hyphen is a platform component only if it is not a
// purely numeric dotted sequence; otherwise the whole string is a version
// (distinguishing platform suffixes from numeric prerelease forms).
func splitPlatform(s string) (ver, platform string) {
	last := strings.LastIndexByte(s, '-')
	if last < 0 {
		return s, ""
	}
	if isNumericSegments(s[last+1:]) {
		return s, ""
	}
	first := strings.IndexByte(s, '-')
	return s[:first], s[first+1:]
}

func isNumericSegments(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// parseDependency parses "name (constraints)" or a bare "name".
func parseDependency(body string) (Dependency, error) {
	name, inner, ok := splitParens(body)
	if !ok {
		if strings.ContainsAny(body, " ()") {
			return Dependency{}, fmt.Errorf("expected \"name\" or \"name (requirement)\"")
		}
		return Dependency{Name: body}, nil
	}

	req, err := version.ParseConstraints(inner)
	if err != nil {
		return Dependency{}, err
	}
	return Dependency{Name: name, Requirement: req}, nil
}

// splitParens splits "name (inner)" into its parts. ok is false when the
// body has no parenthesized suffix at all.
func splitParens(body string) (name, inner string, ok bool) {
	open := strings.Index(body, " (")
	if open < 0 || !strings.HasSuffix(body, ")") {
		return body, "", false
	}
	return body[:open], body[open+2 : len(body)-1], true
}
