// Package security validates the file paths cadence accepts from users: the
// YAML config, the SQLite database and the log file.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// dangerousChars contains shell metacharacters that could be used for injection attacks.
var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

// ValidateFilePath validates and sanitizes a file path to prevent path traversal attacks.
// It cleans the path, resolves symlinks, and checks for dangerous characters.
// Returns the cleaned, resolved path or an error if validation fails.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %s", char, path)
		}
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	resolvedPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Databases and log files are created on first use
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	return resolvedPath, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !strings.HasPrefix(rest, string(filepath.Separator))) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, rest), nil
}

// ResolvePath expands ~ and validates the result.
func ResolvePath(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	return ValidateFilePath(expanded)
}

// RequireRegularFile resolves path and fails unless it names an existing regular file.
func RequireRegularFile(path string) (string, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}
	return resolved, nil
}
