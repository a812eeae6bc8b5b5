// Package discovery lists the data files under a source root.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DiscoveryError reports a root that is missing or cannot be walked.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover files in %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// FindFiles returns the absolute paths of regular files under root whose
// extension is ext, at any depth, sorted lexically.
func FindFiles(root, ext string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && filepath.Ext(path) == ext {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	sort.Strings(files)
	return files, nil
}
