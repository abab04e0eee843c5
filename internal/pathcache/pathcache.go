// Package pathcache builds a startup snapshot of executable basenames to
// absolute paths, scanned once from the PATH environment variable.
package pathcache

import (
	"os"
	"path/filepath"
	"strings"
)

// Cache maps an executable basename to its first-found absolute path.
type Cache struct {
	paths map[string]string
}

// Build scans every directory in path (colon-separated, PATH format) in
// order and records the first occurrence of each basename. A regular file
// qualifies if any execute bit (owner, group, or other) is set.
func Build(path string) *Cache {
	c := &Cache{paths: make(map[string]string)}
	for _, dir := range strings.Split(path, ":") {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if _, seen := c.paths[name]; seen {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if info.Mode().Perm()&0o111 == 0 {
				continue
			}
			c.paths[name] = filepath.Join(dir, name)
		}
	}
	return c
}

// Lookup returns the absolute path for name, and whether it was found.
func (c *Cache) Lookup(name string) (string, bool) {
	p, ok := c.paths[name]
	return p, ok
}

// Len returns the number of distinct executables discovered.
func (c *Cache) Len() int {
	return len(c.paths)
}
