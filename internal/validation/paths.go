package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxPathLength = 4096

// PathValidator restricts where gamelib reads and writes its files.
type PathValidator struct {
	// AllowedBaseDirs restricts paths to these directories; empty allows all
	AllowedBaseDirs []string
}

// NewPathValidator allows the gamelib data and config directories and the
// temp dir.
func NewPathValidator() *PathValidator {
	home, _ := os.UserHomeDir()
	return &PathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(home, ".gamelib"),
			filepath.Join(home, ".config", "gamelib"),
			os.TempDir(),
		},
	}
}

// NewPermissivePathValidator allows any directory.
func NewPermissivePathValidator() *PathValidator {
	return &PathValidator{}
}

// Clean validates path and returns it absolute, with ~ expanded.
func (v *PathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > maxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", maxPathLength)
	}
	for _, c := range path {
		if c < 32 && c != '\t' {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("invalid tilde usage")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	if err := v.withinBaseDirs(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (v *PathValidator) withinBaseDirs(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("path not within allowed directories: %v", v.AllowedBaseDirs)
}

// File validates a file path. An existing directory at path is an error.
func (v *PathValidator) File(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	return clean, nil
}

// Directory validates a directory path, creating it when create is set.
func (v *PathValidator) Directory(path string, create bool) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(clean)
	switch {
	case os.IsNotExist(err):
		if create {
			if err := os.MkdirAll(clean, 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
		}
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", clean)
	}
	return clean, nil
}

// DataPaths resolves the database file, search index and log file and
// makes sure their parent directories exist.
func (v *PathValidator) DataPaths(dbPath, indexPath, logPath string) (db, index, log string, err error) {
	if db, err = v.File(dbPath); err != nil {
		return "", "", "", fmt.Errorf("database path: %w", err)
	}
	if index, err = v.Directory(indexPath, false); err != nil {
		return "", "", "", fmt.Errorf("search index path: %w", err)
	}
	if logPath != "" {
		if log, err = v.File(logPath); err != nil {
			return "", "", "", fmt.Errorf("log path: %w", err)
		}
	}
	for _, p := range []string{db, index, log} {
		if p == "" {
			continue
		}
		if _, err = v.Directory(filepath.Dir(p), true); err != nil {
			return "", "", "", err
		}
	}
	return db, index, log, nil
}
