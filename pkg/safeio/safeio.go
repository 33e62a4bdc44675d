package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// CleanRelPath cleans a relative path coming from an untrusted file tree and
// rejects traversal attempts and absolute paths. Returns the path with
// forward slashes for cross-platform consistency.
func CleanRelPath(p string) (string, error) {
	c := filepath.Clean(filepath.FromSlash(p))
	if filepath.IsAbs(c) {
		return "", errors.New("absolute path not allowed")
	}
	if c == ".." || strings.HasPrefix(c, ".."+string(filepath.Separator)) {
		return "", errors.New("path traversal detected")
	}
	return filepath.ToSlash(c), nil
}

// JoinContained joins rel onto baseDir and verifies the result stays inside
// baseDir. Prevents a hostile relative path inside an overlay from escaping
// the tree it belongs to.
func JoinContained(baseDir, rel string) (string, error) {
	cleaned, err := CleanRelPath(rel)
	if err != nil {
		return "", err
	}
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errors.New("failed to resolve base directory")
	}
	joined := filepath.Join(baseAbs, filepath.FromSlash(cleaned))
	relCheck, err := filepath.Rel(baseAbs, joined)
	if err != nil {
		return "", errors.New("failed to compute relative path")
	}
	if relCheck == ".." || strings.HasPrefix(relCheck, ".."+string(filepath.Separator)) {
		return "", errors.New("path is outside base directory")
	}
	return joined, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, rel string) ([]byte, error) {
	path, err := JoinContained(baseDir, rel)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path containment verified above
	return os.ReadFile(path)
}

// WriteFileContained writes data to baseDir/rel, creating parent directories
// as needed, only if the destination is contained within baseDir.
func WriteFileContained(baseDir, rel string, data []byte) error {
	path, err := JoinContained(baseDir, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
