package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/gorilla/mux"
)

// ListPassengers handles GET /api/passengers
func (h *Handler) ListPassengers(w http.ResponseWriter, r *http.Request) {
	passengers, err := h.ledger.ListPassengers(r.Context(), parsePassengerQuery(r.URL.Query()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, passengers)
}

// GetPassenger handles GET /api/passengers/{id}
func (h *Handler) GetPassenger(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.GetPassenger(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// CreatePassenger handles POST /api/passengers
func (h *Handler) CreatePassenger(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePassengerRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.ledger.CreatePassenger(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusCreated, "Passenger created", p)
}

// UpdatePassenger handles PUT /api/passengers/{id}
func (h *Handler) UpdatePassenger(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePassengerRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.ledger.UpdatePassenger(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Passenger updated", p)
}

// DeletePassenger handles DELETE /api/passengers/{id}
func (h *Handler) DeletePassenger(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.DeletePassenger(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Passenger deleted", p)
}
