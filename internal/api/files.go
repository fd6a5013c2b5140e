package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// FileHandler serves archived files from the archive directory, read-only.
// Files land there through the ingester; this layer never writes.
type FileHandler struct {
	root string
}

// NewFileHandler creates a handler rooted at the archive directory. The root
// is cleaned once so relative paths like "./archive" resolve consistently.
func NewFileHandler(root string) *FileHandler {
	return &FileHandler{root: filepath.Clean(root)}
}

// safePath resolves a relative path against the archive root and rejects any
// result that escapes it (directory traversal). After cleaning, a path only
// escapes when it is absolute or starts with a ".." element.
func (h *FileHandler) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid path: %s", rel)
	}
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes archive root")
	}
	return filepath.Join(h.root, cleaned), nil
}

// Serve handles GET /files/*.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	abs, err := h.safePath(rel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if os.IsNotExist(statErr) || (statErr == nil && info.IsDir()) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
