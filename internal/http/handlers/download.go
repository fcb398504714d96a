package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"memegenius/internal/domain"
	"memegenius/internal/render"
	"memegenius/internal/state"
	"memegenius/pkg/zip"
)

const (
	downloadName = "my-awesome-meme.png"
	bundleName   = "my-awesome-meme.zip"
)

type captionsManifest struct {
	TopText     string                     `json:"top_text"`
	BottomText  string                     `json:"bottom_text"`
	FontSize    int                        `json:"font_size"`
	TextColor   string                     `json:"text_color"`
	Suggestions []domain.CaptionSuggestion `json:"suggestions"`
}

// Download returns the meme as a PNG attachment: the bare base image by
// default, the captioned image with overlay=true, or a zip bundle with
// format=zip.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	overlay := false
	if raw := q.Get("overlay"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: overlay must be a boolean", domain.ErrInvalidInput), false)
			return
		}
		overlay = v
	}
	format := q.Get("format")
	if format != "" && format != "png" && format != "zip" {
		a.fail(w, r, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidInput, format), false)
		return
	}

	base, err := a.currentPayload(r.Context())
	if err != nil {
		a.fail(w, r, err, true)
		return
	}
	snap := a.Store.Snapshot()

	if format == "zip" {
		a.downloadBundle(w, r, base, snap)
		return
	}

	var out domain.Payload
	if overlay {
		out, err = render.Compose(base, overlayOf(snap))
	} else {
		out, err = render.ToPNG(base)
	}
	if err != nil {
		a.fail(w, r, err, true)
		return
	}
	writeAttachment(w, downloadName, out.MIMEType(), out.Bytes())
}

func (a *App) downloadBundle(w http.ResponseWriter, r *http.Request, base domain.Payload, snap state.Snapshot) {
	composed, err := render.Compose(base, overlayOf(snap))
	if err != nil {
		a.fail(w, r, err, true)
		return
	}
	manifest, err := json.MarshalIndent(captionsManifest{
		TopText:     snap.TopText,
		BottomText:  snap.BottomText,
		FontSize:    snap.FontSize,
		TextColor:   snap.TextColor,
		Suggestions: snap.Suggestions,
	}, "", "  ")
	if err != nil {
		a.fail(w, r, err, false)
		return
	}
	now := time.Now()
	archive, err := zip.ArchiveAssets([]zip.Asset{
		{Filename: "raw." + base.Extension(), MIME: base.MIMEType(), Data: base.Bytes(), Modified: now},
		{Filename: "meme.png", MIME: composed.MIMEType(), Data: composed.Bytes(), Modified: now},
		{Filename: "captions.json", MIME: "application/json", Data: manifest, Modified: now},
	})
	if err != nil {
		a.fail(w, r, err, false)
		return
	}
	writeAttachment(w, bundleName, "application/zip", archive)
}

func overlayOf(snap state.Snapshot) render.Overlay {
	return render.Overlay{
		TopText:    snap.TopText,
		BottomText: snap.BottomText,
		FontSize:   snap.FontSize,
		Color:      snap.TextColor,
	}
}

func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
