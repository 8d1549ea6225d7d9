package server

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".jsx":  "application/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".txt":  "text/plain; charset=utf-8",
}

// staticHandler serves the single-page app from root. Unknown paths get
// index.html so client-side routes survive a reload.
type staticHandler struct {
	root   string
	logger *slog.Logger
}

func newStaticHandler(root string, logger *slog.Logger) (*staticHandler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &staticHandler{root: abs, logger: logger}, nil
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(r.URL.Path, "/")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		name = "index.html"
	}

	full, ok := h.resolve(name)
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || !info.Mode().IsRegular() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			h.logger.Warn("stat static file", "path", full, "error", err)
		}
		h.serveFile(w, r, filepath.Join(h.root, "index.html"))
		return
	}
	h.serveFile(w, r, full)
}

// resolve maps a slash-separated request path to a file under root.
// Paths that would escape root are rejected.
func (h *staticHandler) resolve(name string) (string, bool) {
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", false
		}
	}
	full := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+name)))
	rel, err := filepath.Rel(h.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func (h *staticHandler) serveFile(w http.ResponseWriter, r *http.Request, full string) {
	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ct, ok := mimeTypes[strings.ToLower(filepath.Ext(full))]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
