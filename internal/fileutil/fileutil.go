// Package fileutil provides file and path helpers for the CLI and exporter.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrOutputPathEmpty        = errors.New("output path cannot be empty")
)

// TempPrefix names every temporary file this module creates.
const TempPrefix = "readmeview-"

// WriteTempFile stores content in a new temp file named *.extension and
// returns its path with a function that removes it.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}
	path, err = writeTemp("", TempPrefix+"*."+extension, []byte(content))
	if err != nil {
		return "", nil, fmt.Errorf("temp file: %w", err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}

// WriteOutput writes data to path, creating parent directories. The bytes
// land in a sibling temp file first and are renamed into place, so readers
// never observe a partial page.
func WriteOutput(path string, data []byte) error {
	if path == "" {
		return ErrOutputPathEmpty
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmpPath, err := writeTemp(dir, TempPrefix+"*.tmp", data)
	if err != nil {
		return fmt.Errorf("output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("moving output into place: %w", err)
	}
	return nil
}

// writeTemp creates a file in dir matching pattern and fills it with data.
// The file is removed again on any failure.
func writeTemp(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating: %w", err)
	}
	name := f.Name()
	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("writing: %w", err)
	}
	return name, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFilePath reports whether s contains a path separator, as opposed to a
// bare config name such as "readmeview".
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL reports whether s starts with an http or https scheme.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
