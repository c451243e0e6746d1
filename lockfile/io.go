package lockfile

import (
	"fmt"
	"io"
	"os"
)

// lockfilePermissions is the file mode for written lockfiles. Lockfiles are
// meant to be committed, so they are world-readable.
const lockfilePermissions = 0o644

// ReadFile reads and parses a lockfile from the given path.
func ReadFile(path string) (*Resolution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}
	return Parse(data)
}

// WriteFile writes the resolution to the given path in canonical form.
func (r *Resolution) WriteFile(path string) error {
	return os.WriteFile(path, r.Serialize(), lockfilePermissions)
}

// WriteTo writes the canonical lockfile text to w.
func (r *Resolution) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Serialize())
	return int64(n), err
}
