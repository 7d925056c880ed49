// Package storage keeps exported documents on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnsafePath is returned when a name would resolve outside the archive
var ErrUnsafePath = errors.New("path escapes archive directory")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// Archive stores exported files under baseDir, one folder per export day
type Archive struct {
	baseDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewArchive creates an Archive rooted at baseDir
func NewArchive(baseDir string, logger *zap.Logger) *Archive {
	return &Archive{
		baseDir: baseDir,
		logger:  logger,
		now:     time.Now,
	}
}

// Save streams a file named name into today's folder via write and returns
// the final path. The file only appears once write has succeeded.
func (a *Archive) Save(ctx context.Context, name string, write func(w io.Writer) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	safeName := SanitizeName(name)
	if safeName == "" {
		return "", fmt.Errorf("cannot archive %q: empty name after sanitizing", name)
	}

	dir := filepath.Join(a.baseDir, a.now().Format("2006-01-02"))
	fullPath := filepath.Join(dir, safeName)
	if err := a.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		a.logger.Error("Failed to create archive folder",
			zap.String("folder_path", dir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create archive folder: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+safeName+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", safeName, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", safeName, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		a.logger.Error("Failed to move archived file into place",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to store %s: %w", safeName, err)
	}

	a.logger.Info("Archived file", zap.String("path", fullPath))
	return fullPath, nil
}

// validatePath checks that fullPath stays within baseDir
func (a *Archive) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(a.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, fullPath)
	}
	return nil
}

// SanitizeName strips separators, parent references and anything other than
// letters, digits, dot, hyphen and underscore
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, ".")
}
