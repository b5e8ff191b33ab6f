// Package security restricts catalog imports to spreadsheets inside
// operator-approved directories.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotAllowed indicates the path resolves outside every import root.
	ErrNotAllowed = errors.New("security: path not allowed")
	// ErrUnsupportedExtension indicates the file is not an Excel workbook.
	ErrUnsupportedExtension = errors.New("security: unsupported file extension")
	// ErrNotFound indicates the file does not exist or is not accessible.
	ErrNotFound = errors.New("security: file not found")
	// ErrNoRoots is returned by ValidateConfig when nothing may be imported.
	ErrNoRoots = errors.New("security: no import directories configured")
)

// ImportExtensions are the workbook formats the catalog importer reads.
var ImportExtensions = []string{".xlsx", ".xlsm"}

// Guard holds canonical import roots. Roots are resolved through symlinks once
// at construction so a link inside a root cannot point back out of it.
type Guard struct {
	roots []string
	exts  map[string]struct{}
}

// NewGuard canonicalizes dirs. Empty entries are skipped; every other entry
// must be an existing directory.
func NewGuard(dirs []string) (*Guard, error) {
	g := &Guard{exts: make(map[string]struct{}, len(ImportExtensions))}
	for _, e := range ImportExtensions {
		g.exts[e] = struct{}{}
	}
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		real, err := canonical(d)
		if err != nil {
			return nil, fmt.Errorf("security: import dir %q: %w", d, err)
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, fmt.Errorf("security: stat %q: %w", real, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("security: import dir is not a directory: %q", real)
		}
		g.roots = append(g.roots, real)
	}
	return g, nil
}

// Roots returns a copy of the canonical import roots.
func (g *Guard) Roots() []string {
	return append([]string(nil), g.roots...)
}

// ValidateConfig fails when no import root is configured.
func (g *Guard) ValidateConfig() error {
	if len(g.roots) == 0 {
		return ErrNoRoots
	}
	return nil
}

// Resolve returns the canonical path of a workbook inside one of the roots.
func (g *Guard) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrNotAllowed
	}
	if _, ok := g.exts[strings.ToLower(filepath.Ext(path))]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExtension, filepath.Ext(path))
	}

	real, err := canonical(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", err
	}
	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotAllowed
	}

	for _, root := range g.roots {
		if within(root, real) {
			return real, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotAllowed, path)
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("security: abs path: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(real), nil
}

// within reports whether path lies strictly below root.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
