package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// AdminDirName is the admin site directory inside the build directory.
const AdminDirName = "admin-site"

// unsafeChars matches runs of characters that are not kept in directory names.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeDirName turns a domain into a filesystem friendly directory name.
func SafeDirName(domain string) string {
	safe := unsafeChars.ReplaceAllString(domain, "-")
	return strings.ToLower(strings.Trim(safe, "-"))
}

// SiteDir returns the build directory of the public site at the 1-based
// position index, e.g. build/01-alpha.example.
func SiteDir(buildDir string, index int, domain string) string {
	return filepath.Join(buildDir, fmt.Sprintf("%02d-%s", index, SafeDirName(domain)))
}

// AdminDir returns the build directory of the admin site.
func AdminDir(buildDir string) string {
	return filepath.Join(buildDir, AdminDirName)
}

// Clean removes the build directory. It reports whether anything was removed.
func Clean(buildDir string) (bool, error) {
	if buildDir == "" || filepath.Clean(buildDir) == "/" || filepath.Clean(buildDir) == "." {
		return false, fmt.Errorf("refusing to remove build directory %q", buildDir)
	}
	if _, err := os.Lstat(buildDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat build directory: %w", err)
	}
	if err := os.RemoveAll(buildDir); err != nil {
		return false, fmt.Errorf("failed to remove build directory: %w", err)
	}
	return true, nil
}
