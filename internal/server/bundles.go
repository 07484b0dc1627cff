package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edudesk/gamehost/internal/bundle"
)

// handleBundleAssets serves unpacked bundles over loopback HTTP for shells
// that cannot load file:// documents. Paths that don't match a file fall
// back to the game's index.html so bundles can route client-side.
func handleBundleAssets(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if bundle.ValidateID(gameID) != nil {
			http.NotFound(w, r)
			return
		}
		root := filepath.Join(dir, gameID)

		rest := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		path := filepath.Join(root, filepath.Clean("/"+rest))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}

		index := filepath.Join(root, bundle.EntryFile)
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
