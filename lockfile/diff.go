package lockfile

import "sort"

// Diff describes the pin-level differences between two resolutions. It is
// used by callers to decide whether a lockfile is stale without re-running
// resolution.
type Diff struct {
	// Added names packages present only in the new resolution.
	Added []string

	// Removed names packages present only in the old resolution.
	Removed []string

	// Changed lists packages whose pinned version differs.
	Changed []VersionChange
}

// VersionChange records a version move for one package.
type VersionChange struct {
	Name       string
	OldVersion string
	NewVersion string
}

// IsEmpty reports whether the two resolutions pin identical package sets.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Compare computes the pin differences between two resolutions. Platform
// variants of the same package version are treated as one pin.
func Compare(old, new *Resolution) *Diff {
	diff := &Diff{}

	oldPins := pinsByName(old)
	newPins := pinsByName(new)

	for name, newVersion := range newPins {
		oldVersion, exists := oldPins[name]
		switch {
		case !exists:
			diff.Added = append(diff.Added, name)
		case oldVersion != newVersion:
			diff.Changed = append(diff.Changed, VersionChange{
				Name:       name,
				OldVersion: oldVersion,
				NewVersion: newVersion,
			})
		}
		delete(oldPins, name)
	}
	for name := range oldPins {
		diff.Removed = append(diff.Removed, name)
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Slice(diff.Changed, func(i, j int) bool {
		return diff.Changed[i].Name < diff.Changed[j].Name
	})

	return diff
}

func pinsByName(r *Resolution) map[string]string {
	pins := make(map[string]string, len(r.Entries))
	for _, e := range r.Entries {
		pins[e.Name] = e.Version.String()
	}
	return pins
}
