package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrSourceMissing is returned when the directory to clone does not exist.
var ErrSourceMissing = errors.New("source directory not found")

// ErrInvalidPattern is returned for a malformed exclude glob.
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// CloneResult summarizes one clone.
type CloneResult struct {
	// Files is the number of files copied.
	Files int

	// Skipped is the number of files and directories left out by excludes.
	Skipped int

	// Bytes is the total size of the copied files.
	Bytes int64
}

// Cloner copies a site source tree, leaving out paths that match any
// exclude glob. Globs use doublestar syntax and are matched against the
// slash separated path relative to the source root.
type Cloner struct {
	excludes []string
	logger   *slog.Logger
}

// ClonerOption configures a Cloner.
type ClonerOption func(*Cloner)

// WithClonerLogger sets a custom logger.
func WithClonerLogger(logger *slog.Logger) ClonerOption {
	return func(c *Cloner) {
		c.logger = logger
	}
}

// NewCloner creates a Cloner. Every exclude pattern is validated up front.
func NewCloner(excludes []string, opts ...ClonerOption) (*Cloner, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}

	c := &Cloner{excludes: append([]string(nil), excludes...)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Excluded reports whether the relative path rel matches an exclude glob.
func (c *Cloner) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Clone replaces dst with a copy of src. Directories are created as files
// are copied, so a directory whose content is entirely excluded does not
// appear in dst.
func (c *Cloner) Clone(ctx context.Context, src, dst string) (CloneResult, error) {
	var result CloneResult

	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return result, fmt.Errorf("%w: %s", ErrSourceMissing, src)
	}

	if err := os.RemoveAll(dst); err != nil {
		return result, fmt.Errorf("failed to remove existing destination %s: %w", dst, err)
	}
	if err := os.MkdirAll(dst, 0750); err != nil {
		return result, fmt.Errorf("failed to create destination %s: %w", dst, err)
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if c.Excluded(rel) {
			result.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return err
		}

		if d.Type()&fs.ModeSymlink != 0 {
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			result.Files++
			return os.Symlink(link, target)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		n, err := copyFile(path, target)
		if err != nil {
			return err
		}
		result.Files++
		result.Bytes += n
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to clone %s into %s: %w", src, dst, err)
	}

	c.logger.Debug("site source cloned",
		"source", src,
		"destination", dst,
		"files", result.Files,
		"skipped", result.Skipped,
	)
	return result, nil
}

// copyFile copies one regular file, keeping its permission bits.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src) //nolint:gosec // Path comes from walking the source tree
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // Destination is inside the build directory
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return n, err
}
