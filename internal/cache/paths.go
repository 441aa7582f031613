package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manager handles the local image directory.
type Manager struct {
	baseDir string
}

// New creates a cache Manager rooted at baseDir.
func New(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// Path returns the full cache path for a stored filename.
// Layout: <baseDir>/<filename>
func (m *Manager) Path(filename string) string {
	return filepath.Join(m.baseDir, filename)
}

// Exists reports whether the cached file exists.
func (m *Manager) Exists(filename string) bool {
	_, err := os.Stat(m.Path(filename))
	return err == nil
}

// EnsureDir creates the cache directory.
func (m *Manager) EnsureDir() error {
	return os.MkdirAll(m.baseDir, 0750)
}

// Files lists stored filenames in lexical order, skipping temp files and
// directories. A missing directory yields an empty list.
func (m *Manager) Files() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
