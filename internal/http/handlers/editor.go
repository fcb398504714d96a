package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type textRequest struct {
	TopText    *string `json:"top_text"`
	BottomText *string `json:"bottom_text"`
}

type styleRequest struct {
	FontSize  *int    `json:"font_size"`
	TextColor *string `json:"text_color"`
}

type instructionRequest struct {
	Instruction string `json:"instruction"`
}

type autoMagicRequest struct {
	Enabled bool `json:"enabled"`
}

func (a *App) GetEditor(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.snapshot(r))
}

func (a *App) UpdateText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err, false)
		return
	}
	if req.TopText == nil && req.BottomText == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "top_text or bottom_text is required")
		return
	}
	if req.TopText != nil {
		a.Store.SetTopText(*req.TopText)
	}
	if req.BottomText != nil {
		a.Store.SetBottomText(*req.BottomText)
	}
	a.json(w, http.StatusOK, a.snapshot(r))
}

func (a *App) UpdateStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err, false)
		return
	}
	if req.FontSize == nil && req.TextColor == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "font_size or text_color is required")
		return
	}
	// Validate the colour before touching the font size so a bad request
	// changes nothing.
	if req.TextColor != nil {
		if err := a.Store.SetTextColor(*req.TextColor); err != nil {
			a.fail(w, r, err, false)
			return
		}
	}
	if req.FontSize != nil {
		a.Store.SetFontSize(*req.FontSize)
	}
	a.json(w, http.StatusOK, a.snapshot(r))
}

func (a *App) ResetText(w http.ResponseWriter, r *http.Request) {
	a.Store.ResetText()
	a.json(w, http.StatusOK, a.snapshot(r))
}

func (a *App) SetInstruction(w http.ResponseWriter, r *http.Request) {
	var req instructionRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err, false)
		return
	}
	a.Store.SetInstruction(req.Instruction)
	a.json(w, http.StatusOK, a.snapshot(r))
}

func (a *App) SetAutoMagic(w http.ResponseWriter, r *http.Request) {
	var req autoMagicRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err, false)
		return
	}
	a.Store.SetAutoMagic(req.Enabled)
	a.json(w, http.StatusOK, a.snapshot(r))
}

func (a *App) DismissNotice(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DismissNotice(chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

