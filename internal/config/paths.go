package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Paths resolves every relative path in the configuration against a
// single base directory. In a deployed layout that is the executable's
// directory; under `go run` or tests it falls back to the working
// directory so the repo-relative data/ and logs/ layout keeps working.
type Paths struct {
	BaseDir string
}

var (
	pathsOnce     sync.Once
	pathsInstance *Paths
	pathsErr      error
)

// GetPaths returns the process-wide path resolver.
func GetPaths() (*Paths, error) {
	pathsOnce.Do(func() {
		pathsInstance, pathsErr = newPaths()
	})
	return pathsInstance, pathsErr
}

func newPaths() (*Paths, error) {
	base, err := detectBaseDir()
	if err != nil {
		return nil, fmt.Errorf("detect base directory: %w", err)
	}
	return &Paths{BaseDir: base}, nil
}

// detectBaseDir prefers the executable's directory, except when the
// binary lives in a temp build dir (go run, go test), where the working
// directory is the sensible anchor.
func detectBaseDir() (string, error) {
	exe, err := os.Executable()
	if err == nil {
		dir := filepath.Dir(exe)
		if !isTempDir(dir) {
			return dir, nil
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return wd, nil
}

func isTempDir(dir string) bool {
	tmp := os.TempDir()
	if tmp != "" && strings.HasPrefix(dir, tmp) {
		return true
	}
	// go test binaries on some platforms
	return strings.Contains(dir, string(filepath.Separator)+"go-build")
}

// Resolve turns a possibly relative path into an absolute one anchored
// at the base directory. Absolute paths pass through unchanged.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// EnsureDirectories creates the given directories if missing. For file
// paths, pass the directory, not the file.
func (p *Paths) EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(p.Resolve(dir), 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ResetPathsForTesting clears the cached resolver so tests can rebuild
// it with a different working directory.
func ResetPathsForTesting() {
	pathsOnce = sync.Once{}
	pathsInstance = nil
	pathsErr = nil
}
