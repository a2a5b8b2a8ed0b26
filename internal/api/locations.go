package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/premiki/internal/model"
	"github.com/erazemk/premiki/internal/store"
)

// LocationsHandler handles location endpoints.
type LocationsHandler struct {
	DB *sql.DB
}

type nameRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/locations.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := store.ListLocations(r.Context(), h.DB)
	if err != nil {
		writeError(w, err, "list locations")
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// Create handles POST /api/locations.
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := store.CreateLocation(r.Context(), h.DB, req.Name)
	if err != nil {
		writeError(w, err, "create location")
		return
	}

	slog.Info("location created", "user", GetClaims(r.Context()).Email, "location", l.Name)
	jsonResponse(w, http.StatusCreated, l)
}

// Get handles GET /api/locations/{id}.
func (h *LocationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "location")
	if !ok {
		return
	}

	l, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "get location")
		return
	}
	if l == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// Update handles PUT /api/locations/{id}.
func (h *LocationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "location")
	if !ok {
		return
	}

	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateLocation(r.Context(), h.DB, id, req.Name); err != nil {
		writeError(w, err, "update location")
		return
	}

	l, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "get location")
		return
	}
	slog.Info("location updated", "user", GetClaims(r.Context()).Email, "location", l.Name)
	jsonResponse(w, http.StatusOK, l)
}

// Delete handles DELETE /api/locations/{id}. Locations used by a transfer
// cannot be deleted.
func (h *LocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "location")
	if !ok {
		return
	}

	if err := store.DeleteLocation(r.Context(), h.DB, id); err != nil {
		writeError(w, err, "delete location")
		return
	}

	slog.Info("location deleted", "user", GetClaims(r.Context()).Email, "location", id)
	jsonMessage(w, "location deleted")
}
