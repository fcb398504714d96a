package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"memegenius/internal/camera"
	"memegenius/internal/domain"
	"memegenius/internal/i18n"
	"memegenius/internal/infra"
	"memegenius/internal/imagesource"
	"memegenius/internal/middleware"
	"memegenius/internal/orchestrator"
	"memegenius/internal/state"
	"memegenius/internal/storage"
)

const defaultMaxBody = 20 << 20

// SourceNormalizer turns an image reference into a payload.
type SourceNormalizer interface {
	Normalize(ctx context.Context, src imagesource.Source) (domain.Payload, error)
}

// MediaLibrary lists the local media directory.
type MediaLibrary interface {
	List(ctx context.Context) ([]storage.Entry, error)
}

// CameraController is the camera.Manager surface the handlers use.
type CameraController interface {
	Open(ctx context.Context) (camera.Status, error)
	Capture(ctx context.Context) (domain.Payload, error)
	Close() camera.Status
	Status() camera.Status
	Publish(frame image.Image) error
}

// App carries the handler dependencies.
type App struct {
	Store        *state.Store
	Orchestrator *orchestrator.Orchestrator
	Sources      SourceNormalizer
	Library      MediaLibrary
	Camera       CameraController
	Logger       *infra.Logger
	MaxBodyBytes int64
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Notice  string `json:"notice_id,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]apiError{"error": {Code: errCode, Message: message}})
}

// fail maps err onto an HTTP status and a localized message. When push is
// set the matching notice is also recorded in the store; AI failures are
// recorded by the orchestrator itself.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, push bool) {
	status, code := classify(err)
	notice := noticeCode(err)

	body := apiError{Code: code, Message: err.Error()}
	if notice != "" {
		body.Message = i18n.NoticeFor(middleware.LocaleFromContext(r.Context()), notice)
		if push {
			body.Notice = a.Store.PushNotice(notice, kindOf(err)).ID
		}
	}

	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", code).Msg("request failed")
	} else {
		logger.Warn().Err(err).Str("code", code).Msg("request rejected")
	}
	a.json(w, status, map[string]apiError{"error": body})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSuggestion), errors.Is(err, domain.ErrEdit):
		return http.StatusBadGateway, "ai_failed"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrCamera):
		return http.StatusServiceUnavailable, "camera_unavailable"
	case errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway, "fetch_failed"
	case errors.Is(err, domain.ErrRead), errors.Is(err, domain.ErrEncoding):
		return http.StatusUnprocessableEntity, "unprocessable_image"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func noticeCode(err error) domain.NoticeCode {
	switch {
	case errors.Is(err, domain.ErrSuggestion):
		return domain.NoticeCaptionFailed
	case errors.Is(err, domain.ErrEdit):
		return domain.NoticeEditFailed
	case errors.Is(err, domain.ErrCamera):
		return domain.NoticeCameraFailed
	case errors.Is(err, domain.ErrRead):
		return domain.NoticeImageRead
	case errors.Is(err, domain.ErrFetch):
		return domain.NoticeImageFetch
	case errors.Is(err, domain.ErrEncoding):
		return domain.NoticeImageEncoding
	default:
		return ""
	}
}

func kindOf(err error) domain.OperationKind {
	switch {
	case errors.Is(err, domain.ErrSuggestion):
		return domain.OperationCaption
	case errors.Is(err, domain.ErrEdit):
		return domain.OperationEdit
	default:
		return ""
	}
}

// decodeJSON reads a bounded JSON body into v.
func (a *App) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, a.maxBody())
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid payload: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func (a *App) maxBody() int64 {
	if a.MaxBodyBytes > 0 {
		return a.MaxBodyBytes
	}
	return defaultMaxBody
}

// editorResponse is the snapshot with notice texts in the request locale.
type editorResponse struct {
	state.Snapshot
	Locale string `json:"locale"`
}

func (a *App) snapshot(r *http.Request) editorResponse {
	locale := middleware.LocaleFromContext(r.Context())
	snap := a.Store.Snapshot()
	for i := range snap.Notices {
		snap.Notices[i].Message = i18n.NoticeFor(locale, snap.Notices[i].Code)
	}
	return editorResponse{Snapshot: snap, Locale: locale}
}

// currentPayload resolves the store image into bytes.
func (a *App) currentPayload(ctx context.Context) (domain.Payload, error) {
	ref := a.Store.CurrentImage()
	if ref.IsPayload() {
		return ref.Payload, nil
	}
	return a.Sources.Normalize(ctx, imagesource.FromString(ref.URL))
}
