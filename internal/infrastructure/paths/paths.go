package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// filePermissions is the permission mode for files created by EnsureFile.
const filePermissions = 0600

// Resolver builds absolute paths and URLs relative to the application root.
//
// Thread Safety:
//   - Resolver is immutable and safe for concurrent use.
type Resolver struct {
	root    string
	urlHost string
}

// New creates a Resolver for the given root directory and URL host.
//
// The root is used exactly as given; the entry point decides which directory
// the application is rooted at.
func New(root, urlHost string) *Resolver {
	return &Resolver{root: root, urlHost: urlHost}
}

// Root returns the root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Path returns root + suffix. The suffix is appended verbatim, so callers
// supply the leading separator ("/data/app.db").
func (r *Resolver) Path(suffix string) string {
	return r.root + suffix
}

// URL returns URLBase() + suffix.
func (r *Resolver) URL(suffix string) string {
	return r.URLBase() + suffix
}

// URLBase returns the configured host with exactly one trailing slash appended
// when it is missing.
func (r *Resolver) URLBase() string {
	if strings.HasSuffix(r.urlHost, "/") {
		return r.urlHost
	}
	return r.urlHost + "/"
}

// EnsureFile creates an empty file at path if nothing exists there yet and
// returns the canonical absolute path with symlinks resolved.
//
// Parent directories are not created.
//
// Returns:
//   - string: Canonical path
//   - error: ErrCannotCreateFile if the file cannot be created
func EnsureFile(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		f, createErr := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
		if createErr != nil && !errors.Is(createErr, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s: %w", ErrCannotCreateFile, path, createErr)
		}
		if f != nil {
			if closeErr := f.Close(); closeErr != nil {
				return "", fmt.Errorf("%w: %s: %w", ErrCannotCreateFile, path, closeErr)
			}
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return canonical, nil
}
