package core

import (
	"fmt"
	"os"
	"strings"
)

// RevisionComparator reports whether the caller's cached instruction
// revision still matches the canonical one. The resolver surfaces
// sync_instructions ahead of everything else when it does not.
type RevisionComparator interface {
	InSync() (bool, error)
}

// fileRevisionComparator compares two revision marker files by trimmed
// content.
type fileRevisionComparator struct {
	canonicalPath string
	cachedPath    string
}

// NewRevisionComparator creates a RevisionComparator over two marker files.
func NewRevisionComparator(canonicalPath, cachedPath string) RevisionComparator {
	return &fileRevisionComparator{canonicalPath: canonicalPath, cachedPath: cachedPath}
}

// InSync compares the cached revision against the canonical one. A missing
// canonical file means there is nothing to sync to; a missing cached file
// against an existing canonical one means the caller is behind.
func (c *fileRevisionComparator) InSync() (bool, error) {
	canonical, err := readRevision(c.canonicalPath)
	if err != nil {
		return false, fmt.Errorf("reading canonical revision: %w", err)
	}
	if canonical == "" {
		return true, nil
	}

	cached, err := readRevision(c.cachedPath)
	if err != nil {
		return false, fmt.Errorf("reading cached revision: %w", err)
	}
	return cached == canonical, nil
}

func readRevision(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// StaticRevisionComparator returns a RevisionComparator with a fixed answer,
// for wiring and tests.
func StaticRevisionComparator(inSync bool) RevisionComparator {
	return staticComparator(inSync)
}

type staticComparator bool

func (s staticComparator) InSync() (bool, error) { return bool(s), nil }
