package bundle

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DemoGameID names the bundled sample game.
const DemoGameID = "times-tables"

//go:embed demo
var demo embed.FS

// SeedDemo installs the sample game into dir unless it is already there.
// It reports whether anything was written.
func SeedDemo(dir string) (bool, error) {
	target := filepath.Join(dir, DemoGameID)
	if _, err := os.Stat(filepath.Join(target, EntryFile)); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking demo bundle: %w", err)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return false, fmt.Errorf("creating demo bundle dir: %w", err)
	}
	sub, err := fs.Sub(demo, "demo")
	if err != nil {
		return false, err
	}
	if err := os.CopyFS(target, sub); err != nil {
		return false, fmt.Errorf("writing demo bundle: %w", err)
	}
	return true, nil
}
