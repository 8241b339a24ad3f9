// Package pathinfo derives dataset labels from where a cluster log sits on
// disk. Logs are laid out as <source>/<x>/<settings>/<log>, so the source is
// the name of the third parent directory and the settings label the name of
// the first.
package pathinfo

import (
	"path/filepath"
	"strings"
)

// Labels returns the source and settings labels for path. A label whose
// directory does not exist in path is "".
func Labels(path string) (source, settings string) {
	return Ancestor(path, 3), Ancestor(path, 1)
}

// Ancestor returns the name of the n-th parent directory of path, or "" when
// path has fewer than n parents.
func Ancestor(path string, n int) string {
	parts := components(path)
	i := len(parts) - 1 - n
	if n < 0 || i < 0 {
		return ""
	}
	return parts[i]
}

func components(path string) []string {
	if path == "" {
		return nil
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	var parts []string
	for _, part := range strings.Split(clean, "/") {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}
