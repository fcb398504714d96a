package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"memegenius/internal/domain"
	"memegenius/internal/orchestrator"
)

type captionRequest struct {
	AutoApply bool `json:"auto_apply"`
}

type outcomeResponse struct {
	Kind        domain.OperationKind       `json:"kind"`
	Token       uint64                     `json:"token"`
	Skipped     bool                       `json:"skipped"`
	Stale       bool                       `json:"stale"`
	Suggestions []domain.CaptionSuggestion `json:"suggestions,omitempty"`
}

type operationResponse struct {
	Outcome outcomeResponse `json:"outcome"`
	Editor  editorResponse  `json:"editor"`
}

func toOutcome(o orchestrator.Outcome) outcomeResponse {
	return outcomeResponse{
		Kind:        o.Kind,
		Token:       o.Token,
		Skipped:     o.Skipped,
		Stale:       o.Stale,
		Suggestions: o.Suggestions,
	}
}

// SuggestCaptions runs caption suggestion on the current image. The body is
// optional.
func (a *App) SuggestCaptions(w http.ResponseWriter, r *http.Request) {
	var req captionRequest
	if r.ContentLength > 0 {
		if err := a.decodeJSON(w, r, &req); err != nil {
			a.fail(w, r, err, false)
			return
		}
	}
	out, err := a.Orchestrator.SuggestCaptions(r.Context(), orchestrator.Options{AutoApply: req.AutoApply})
	if err != nil {
		a.fail(w, r, err, false)
		return
	}
	a.json(w, http.StatusOK, operationResponse{Outcome: toOutcome(out), Editor: a.snapshot(r)})
}

// ApplySuggestion copies a suggestion into the bottom text.
func (a *App) ApplySuggestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: index must be an integer", domain.ErrInvalidInput), false)
		return
	}
	if _, err := a.Store.ApplySuggestion(index); err != nil {
		a.fail(w, r, err, false)
		return
	}
	a.json(w, http.StatusOK, a.snapshot(r))
}
