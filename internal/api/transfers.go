package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/premiki/internal/model"
	"github.com/erazemk/premiki/internal/transfer"
)

// TransfersHandler handles transfer endpoints.
type TransfersHandler struct {
	Transfers *transfer.Service
}

// List handles GET /api/transfers. The filter parameter is one of all,
// completed or not_completed (the default).
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.TransferFilter(r.URL.Query().Get("filter"))
	transfers, err := h.Transfers.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, "list transfers")
		return
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Create handles POST /api/transfers. The transfer is recorded for the
// authenticated user.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req transfer.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	req.UserID = claims.UserID

	t, err := h.Transfers.Create(r.Context(), req)
	if err != nil {
		writeError(w, err, "create transfer")
		return
	}

	slog.Info("transfer submitted", "user", claims.Email, "id", t.ID, "lines", len(t.Items))
	jsonResponse(w, http.StatusCreated, t)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transfer")
	if !ok {
		return
	}

	t, err := h.Transfers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "get transfer")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Update handles PUT /api/transfers/{id}. Locations and lines are replaced.
func (h *TransfersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transfer")
	if !ok {
		return
	}

	var req transfer.EditInput
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Transfers.Edit(r.Context(), id, req)
	if err != nil {
		writeError(w, err, "edit transfer")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Delete handles DELETE /api/transfers/{id}.
func (h *TransfersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transfer")
	if !ok {
		return
	}

	if err := h.Transfers.Delete(r.Context(), id); err != nil {
		writeError(w, err, "delete transfer")
		return
	}
	jsonMessage(w, "transfer deleted")
}

// Complete handles POST /api/transfers/{id}/complete.
func (h *TransfersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, true)
}

// Reopen handles POST /api/transfers/{id}/reopen.
func (h *TransfersHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, false)
}

func (h *TransfersHandler) setCompleted(w http.ResponseWriter, r *http.Request, completed bool) {
	id, ok := pathID(w, r, "transfer")
	if !ok {
		return
	}

	if err := h.Transfers.SetCompleted(r.Context(), id, completed); err != nil {
		writeError(w, err, "update transfer")
		return
	}

	t, err := h.Transfers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "get transfer")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}
