// Package zapdir encapsulates all path knowledge for the zapctl config
// directory. It provides a Dir value object with accessors for the config
// file and session storage.
package zapdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Dir is a value object that resolves paths within a zapctl config
// directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Default returns the Dir at the platform's user config location, e.g.
// ~/.config/zapctl on Linux. The ZAPCTL_CONFIG_DIR environment variable
// overrides it.
func Default() (Dir, error) {
	if override := os.Getenv("ZAPCTL_CONFIG_DIR"); override != "" {
		return New(override), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("zapdir: resolve config dir: %w", err)
	}

	return New(filepath.Join(base, "zapctl")), nil
}

// Root returns the absolute path to the config directory.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the main config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "config.yaml") }

// SessionsDir returns the path to the saved session definitions directory.
func (d Dir) SessionsDir() string { return filepath.Join(d.root, "sessions") }

// SessionFiles returns sorted paths of all *.yaml and *.yml files in the
// sessions directory. Returns nil if the directory does not exist.
func (d Dir) SessionFiles() []string {
	var matches []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		found, err := filepath.Glob(filepath.Join(d.SessionsDir(), pattern))
		if err != nil {
			continue
		}
		matches = append(matches, found...)
	}

	if len(matches) == 0 {
		return nil
	}

	sort.Strings(matches)

	return matches
}

// EnsureStructure creates the config and sessions directories if they are
// missing. It is safe to call multiple times (idempotent).
func EnsureStructure(d Dir) error {
	if err := os.MkdirAll(d.SessionsDir(), 0o750); err != nil {
		return fmt.Errorf("zapdir: create sessions dir: %w", err)
	}

	return nil
}
