package http

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// NewStaticHandler serves the built front end from root. Paths without a
// file extension that do not exist are client-side routes and receive
// index.html; missing assets stay 404.
func NewStaticHandler(root fs.FS) http.Handler {
	files := http.FileServerFS(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "."
		}
		if _, err := fs.Stat(root, name); errors.Is(err, fs.ErrNotExist) && path.Ext(name) == "" {
			http.ServeFileFS(w, r, root, "index.html")
			return
		}
		files.ServeHTTP(w, r)
	})
}
