package handlers

import (
	"net/http"

	"memegenius/internal/storage"
	"memegenius/internal/templates"
)

func (a *App) ListTemplates(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": templates.Trending()})
}

// ListLibrary lists the media directory; an unconfigured library is empty.
func (a *App) ListLibrary(w http.ResponseWriter, r *http.Request) {
	items := []storage.Entry{}
	if a.Library != nil {
		entries, err := a.Library.List(r.Context())
		if err != nil {
			a.fail(w, r, err, false)
			return
		}
		items = append(items, entries...)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
