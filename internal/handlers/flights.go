package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/gorilla/mux"
)

// ListFlights handles GET /api/flights
func (h *Handler) ListFlights(w http.ResponseWriter, r *http.Request) {
	q, err := parseFlightQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	flights, err := h.ledger.ListFlights(r.Context(), q)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	f, err := h.ledger.GetFlight(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// CreateFlight handles POST /api/flights
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFlightRequest
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.ledger.CreateFlight(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusCreated, "Flight created", f)
}

// UpdateFlight handles PUT /api/flights/{id}
func (h *Handler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateFlightRequest
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.ledger.UpdateFlight(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Flight updated", f)
}

// DeleteFlight handles DELETE /api/flights/{id}
func (h *Handler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	f, err := h.ledger.DeleteFlight(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Flight deleted", f)
}
