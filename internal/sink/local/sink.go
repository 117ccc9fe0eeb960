// Package local implements a local filesystem sink with atomic writes.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the local filesystem sink.
type Config struct {
	// BaseDir optionally roots all artifact paths. When empty, names are
	// used as given (relative to the working directory or absolute).
	BaseDir string `mapstructure:"base_dir"`
}

// Sink writes artifacts to the local filesystem. Writes are atomic: the
// artifact lands in a temp file in the destination directory and is renamed
// into place.
type Sink struct {
	baseDir string
}

// New creates a local filesystem sink.
func New(cfg Config) (*Sink, error) {
	if cfg.BaseDir != "" {
		if err := os.MkdirAll(cfg.BaseDir, 0o750); err != nil {
			return nil, fmt.Errorf("create base directory: %w", err)
		}
	}
	return &Sink{baseDir: cfg.BaseDir}, nil
}

// Put writes data to the named file and returns a file:// URI. Parent
// directories are created as needed.
func (s *Sink) Put(_ context.Context, name string, _ string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}

	fullPath := name
	if s.baseDir != "" && !filepath.IsAbs(name) {
		fullPath = filepath.Join(s.baseDir, name)
		// Joined paths must stay inside the base directory.
		cleanBase := filepath.Clean(s.baseDir)
		if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
			return "", fmt.Errorf("path traversal detected")
		}
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename into place: %w", err)
	}

	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}
	return "file://" + abs, nil
}
