// Package bundle makes mini-game bundles available on local disk so the
// shell can render them from a file:// locator.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
)

var (
	ErrNotFound  = errors.New("bundle not found")
	ErrInvalidID = errors.New("invalid game id")
)

// EntryFile is the document a bundle is rendered from.
const EntryFile = "index.html"

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ValidateID rejects identifiers that could escape the bundle directory.
func ValidateID(gameID string) error {
	if !validID.MatchString(gameID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, gameID)
	}
	return nil
}

// DirFetcher serves bundles already unpacked under a directory, one
// sub-directory per game.
type DirFetcher struct {
	dir string
}

func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{dir: dir}
}

// Fetch returns the file:// locator of the bundle's entry document.
func (f *DirFetcher) Fetch(_ context.Context, gameID string) (string, error) {
	if err := ValidateID(gameID); err != nil {
		return "", err
	}

	path := filepath.Join(f.dir, gameID, EntryFile)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return "", fmt.Errorf("checking bundle %s: %w", gameID, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	return fileLocator(path)
}

func fileLocator(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
