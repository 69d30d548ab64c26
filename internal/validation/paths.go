package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilePathValidator checks file paths coming from flags and config files.
type FilePathValidator struct {
	// AllowHomeExpansion determines if tilde expansion is permitted
	AllowHomeExpansion bool
	// MaxPathLength is the maximum allowed path length
	MaxPathLength int
}

func NewFilePathValidator() *FilePathValidator {
	return &FilePathValidator{
		AllowHomeExpansion: true,
		MaxPathLength:      4096,
	}
}

// ValidateFile returns the absolute, cleaned form of path. It rejects
// control characters, traversal components and existing directories.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	for _, char := range path {
		if char < 32 && char != '\t' {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if component == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if strings.HasPrefix(path, "~") {
		if !v.AllowHomeExpansion || !strings.HasPrefix(path, "~/") {
			return "", fmt.Errorf("tilde expansion not allowed or invalid tilde usage")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	abs = filepath.Clean(abs)

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", abs)
	}
	return abs, nil
}

// IsPathSafe performs a quick safety check on a path without full validation
func IsPathSafe(path string) bool {
	if strings.Contains(path, "\x00") {
		return false
	}
	if strings.Contains(path, "../") || strings.Contains(path, "..\\") {
		return false
	}
	return len(path) <= 4096
}
