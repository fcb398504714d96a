package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"memegenius/internal/domain"
	"memegenius/internal/imagesource"
	"memegenius/internal/state"
	"memegenius/internal/templates"
)

type setImageRequest struct {
	DataURI    string `json:"data_uri"`
	URL        string `json:"url"`
	TemplateID string `json:"template_id"`
	LibraryKey string `json:"library_key"`
}

// SetImage replaces the base image from an upload, a data URI, a remote URL,
// a template or a media library file.
func (a *App) SetImage(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		a.setImageFromUpload(w, r)
		return
	}

	var req setImageRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err, false)
		return
	}

	set := 0
	for _, v := range []string{req.DataURI, req.URL, req.TemplateID, req.LibraryKey} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 1 {
		a.error(w, http.StatusBadRequest, "bad_request", "exactly one of data_uri, url, template_id, library_key is required")
		return
	}

	switch {
	case req.TemplateID != "":
		tpl, ok := templates.Lookup(req.TemplateID)
		if !ok {
			a.fail(w, r, fmt.Errorf("%w: template %s", domain.ErrNotFound, req.TemplateID), false)
			return
		}
		a.Store.SetImage(state.ImageRef{URL: tpl.URL, TemplateID: tpl.ID})
	case req.DataURI != "":
		a.setPayload(w, r, imagesource.FromDataURI(req.DataURI), "")
		return
	case req.URL != "":
		a.setPayload(w, r, imagesource.FromURL(req.URL), "")
		return
	default:
		a.setPayload(w, r, imagesource.FromFile(req.LibraryKey), req.LibraryKey)
		return
	}
	a.json(w, http.StatusOK, a.snapshot(r))
}

func (a *App) setImageFromUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxBody())
	if err := r.ParseMultipartForm(a.maxBody()); err != nil {
		a.fail(w, r, fmt.Errorf("%w: %v", domain.ErrRead, err), true)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	a.setPayload(w, r, imagesource.FromReader(header.Filename, file), "")
}

func (a *App) setPayload(w http.ResponseWriter, r *http.Request, src imagesource.Source, libraryKey string) {
	payload, err := a.Sources.Normalize(r.Context(), src)
	if err != nil {
		a.fail(w, r, err, true)
		return
	}
	a.Store.SetImage(state.ImageRef{Payload: payload, LibraryKey: libraryKey})
	a.json(w, http.StatusOK, a.snapshot(r))
}
