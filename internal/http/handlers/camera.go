package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"memegenius/internal/camera"
	"memegenius/internal/domain"
	"memegenius/internal/i18n"
	"memegenius/internal/imagesource"
	"memegenius/internal/middleware"
)

type frameRequest struct {
	DataURI string `json:"data_uri"`
}

type captureResponse struct {
	Camera  camera.Status   `json:"camera"`
	Caption outcomeResponse `json:"caption"`
	Editor  editorResponse  `json:"editor"`
}

// CameraOpen starts a capture session. An open cut short by a close answers
// with the closed status and no notice.
func (a *App) CameraOpen(w http.ResponseWriter, r *http.Request) {
	status, err := a.Camera.Open(r.Context())
	if errors.Is(err, camera.ErrClosed) {
		zerolog.Ctx(r.Context()).Info().Str("session_id", status.ID).Msg("camera open cancelled by close")
		a.json(w, http.StatusOK, status)
		return
	}
	if err != nil {
		a.fail(w, r, err, true)
		return
	}
	a.json(w, http.StatusOK, status)
}

// CameraStatus reports the current session.
func (a *App) CameraStatus(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Camera.Status())
}

// CameraClose stops the current session and releases the device.
func (a *App) CameraClose(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Camera.Close())
}

// CameraFrame accepts one frame for the feed device, either as a raw image
// body or as JSON {"data_uri": ...}.
func (a *App) CameraFrame(w http.ResponseWriter, r *http.Request) {
	var src imagesource.Source
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req frameRequest
		if err := a.decodeJSON(w, r, &req); err != nil {
			a.fail(w, r, err, false)
			return
		}
		src = imagesource.FromDataURI(req.DataURI)
	} else {
		src = imagesource.FromReader("frame", http.MaxBytesReader(w, r.Body, a.maxBody()))
	}

	payload, err := a.Sources.Normalize(r.Context(), src)
	if err != nil {
		a.fail(w, r, err, false)
		return
	}
	frame, err := imaging.Decode(bytes.NewReader(payload.Bytes()))
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: decode frame: %v", domain.ErrEncoding, err), false)
		return
	}
	if err := a.Camera.Publish(frame); err != nil {
		a.fail(w, r, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CameraCapture takes a still, closes the camera, makes the still the base
// image and runs the auto caption flow.
func (a *App) CameraCapture(w http.ResponseWriter, r *http.Request) {
	payload, err := a.Camera.Capture(r.Context())
	if errors.Is(err, domain.ErrInvalidState) {
		notice := a.Store.PushNotice(domain.NoticeCaptureInvalid, "")
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("capture before camera ready")
		a.json(w, http.StatusConflict, map[string]apiError{"error": {
			Code:    "invalid_state",
			Message: i18n.NoticeFor(middleware.LocaleFromContext(r.Context()), domain.NoticeCaptureInvalid),
			Notice:  notice.ID,
		}})
		return
	}
	if err != nil {
		a.fail(w, r, err, true)
		return
	}
	status := a.Camera.Close()

	out, err := a.Orchestrator.UseCapture(r.Context(), payload)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("auto caption failed")
	}
	a.json(w, http.StatusOK, captureResponse{
		Camera:  status,
		Caption: toOutcome(out),
		Editor:  a.snapshot(r),
	})
}
