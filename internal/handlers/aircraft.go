package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/gorilla/mux"
)

// ListAircraft handles GET /api/aircraft
func (h *Handler) ListAircraft(w http.ResponseWriter, r *http.Request) {
	q, err := parseAircraftQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	aircraft, err := h.ledger.ListAircraft(r.Context(), q)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, aircraft)
}

// GetAircraft handles GET /api/aircraft/{id}
func (h *Handler) GetAircraft(w http.ResponseWriter, r *http.Request) {
	a, err := h.ledger.GetAircraft(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// CreateAircraft handles POST /api/aircraft
func (h *Handler) CreateAircraft(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAircraftRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.ledger.CreateAircraft(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusCreated, "Aircraft created", a)
}

// UpdateAircraft handles PUT /api/aircraft/{id}
func (h *Handler) UpdateAircraft(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAircraftRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.ledger.UpdateAircraft(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Aircraft updated", a)
}

// DeleteAircraft handles DELETE /api/aircraft/{id}
func (h *Handler) DeleteAircraft(w http.ResponseWriter, r *http.Request) {
	a, err := h.ledger.DeleteAircraft(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Aircraft deleted", a)
}
