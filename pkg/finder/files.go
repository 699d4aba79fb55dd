package finder

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// skipDirs are never descended into
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Skip reports whether a directory name is excluded from watching
func Skip(name string) bool {
	return skipDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// FindDirs walks each root and returns every directory beneath it (roots included),
// excluding node_modules, .git and other hidden directories. Missing roots are skipped.
func FindDirs(roots ...string) ([]string, error) {
	var dirs []string

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && Skip(d.Name()) {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return dirs, err
		}
	}

	return dirs, nil
}
