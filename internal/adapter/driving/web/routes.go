package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the embeddable thread routes on the provided mux.
// The thread stylesheet is served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /embed/issues/{issue}", h.EmbedIssue)
	mux.HandleFunc("GET /embed/threads/{thread}/comments", h.LoadMore)
}
