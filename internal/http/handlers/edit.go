package handlers

import (
	"net/http"
)

type editRequest struct {
	Instruction *string `json:"instruction"`
}

// EditImage runs an AI edit. Without an instruction in the body the stored
// instruction field is used.
func (a *App) EditImage(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if r.ContentLength > 0 {
		if err := a.decodeJSON(w, r, &req); err != nil {
			a.fail(w, r, err, false)
			return
		}
	}
	if req.Instruction != nil {
		a.Store.SetInstruction(*req.Instruction)
	}
	out, err := a.Orchestrator.EditImage(r.Context(), a.Store.Instruction())
	if err != nil {
		a.fail(w, r, err, false)
		return
	}
	a.json(w, http.StatusOK, operationResponse{Outcome: toOutcome(out), Editor: a.snapshot(r)})
}
