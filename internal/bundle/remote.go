package bundle

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// maxBundleSize caps a downloaded archive.
const maxBundleSize = 64 << 20

// RemoteFetcher serves bundles from a local directory and downloads missing
// ones as zip archives from <baseURL>/<gameID>.zip. Concurrent opens of the
// same game share one download.
type RemoteFetcher struct {
	local   *DirFetcher
	dir     string
	baseURL *url.URL
	client  *http.Client
	logger  *slog.Logger
	group   singleflight.Group
}

func NewRemoteFetcher(dir, baseURL string, client *http.Client, logger *slog.Logger) (*RemoteFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing bundle base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bundle base url must be http(s), got %q", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &RemoteFetcher{
		local:   NewDirFetcher(dir),
		dir:     dir,
		baseURL: u,
		client:  client,
		logger:  logger,
	}, nil
}

func (f *RemoteFetcher) Fetch(ctx context.Context, gameID string) (string, error) {
	locator, err := f.local.Fetch(ctx, gameID)
	if !errors.Is(err, ErrNotFound) {
		return locator, err
	}

	// Every caller waiting on gameID shares the download; the client timeout
	// bounds it.
	shareCtx := context.WithoutCancel(ctx)
	_, err, shared := f.group.Do(gameID, func() (any, error) {
		// Another caller may have installed it since the first check.
		if _, err := f.local.Fetch(shareCtx, gameID); err == nil {
			return nil, nil
		}
		return nil, f.download(shareCtx, gameID)
	})
	if err != nil {
		return "", err
	}
	if shared {
		f.logger.Debug("bundle download shared", "game_id", gameID)
	}
	return f.local.Fetch(ctx, gameID)
}

func (f *RemoteFetcher) download(ctx context.Context, gameID string) error {
	src := f.baseURL.JoinPath(gameID + ".zip")
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.String(), nil)
	if err != nil {
		return fmt.Errorf("building bundle request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading bundle %s: %w", gameID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, gameID)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("downloading bundle %s: unexpected status %d", gameID, resp.StatusCode)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating bundle dir: %w", err)
	}
	archive, err := os.CreateTemp(f.dir, gameID+"-*.zip")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	n, err := io.Copy(archive, io.LimitReader(resp.Body, maxBundleSize+1))
	if err != nil {
		return fmt.Errorf("writing bundle %s: %w", gameID, err)
	}
	if n > maxBundleSize {
		return fmt.Errorf("bundle %s exceeds %d bytes", gameID, maxBundleSize)
	}

	staging, err := os.MkdirTemp(f.dir, "."+gameID+"-")
	if err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := unzip(archive, n, staging); err != nil {
		return fmt.Errorf("unpacking bundle %s: %w", gameID, err)
	}
	if _, err := os.Stat(filepath.Join(staging, EntryFile)); err != nil {
		return fmt.Errorf("bundle %s has no %s", gameID, EntryFile)
	}

	if err := os.Rename(staging, filepath.Join(f.dir, gameID)); err != nil {
		return fmt.Errorf("installing bundle %s: %w", gameID, err)
	}

	f.logger.Info("bundle downloaded",
		"game_id", gameID,
		"bytes", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func unzip(r io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return err
	}

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, zf := range zr.File {
		target := filepath.Join(dest, zf.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("entry %q escapes bundle", zf.Name)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if !zf.Mode().IsRegular() {
			return fmt.Errorf("entry %q is not a regular file", zf.Name)
		}
		if err := extract(zf, target); err != nil {
			return err
		}
	}
	return nil
}

func extract(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := zf.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, io.LimitReader(src, maxBundleSize)); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
