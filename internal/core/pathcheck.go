package core

import (
	"os"
	"path/filepath"
)

// PathChecker reports whether a project-relative path exists. The engine
// only consults it during batch validation; path resolution itself belongs
// to the collaborator.
type PathChecker interface {
	Exists(path string) bool
}

// osPathChecker checks paths against the real filesystem, rooted at the
// project directory.
type osPathChecker struct {
	root string
}

// NewPathChecker creates a PathChecker rooted at the given project directory.
func NewPathChecker(root string) PathChecker {
	return &osPathChecker{root: root}
}

func (c *osPathChecker) Exists(path string) bool {
	if path == "" {
		return false
	}
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(c.root, path)
	}
	_, err := os.Stat(full)
	return err == nil
}
