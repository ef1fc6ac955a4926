package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/gorilla/mux"
)

// ListTickets handles GET /api/tickets
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	q, err := parseTicketQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	tickets, err := h.ledger.ListTickets(r.Context(), q)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// GetTicket handles GET /api/tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.GetTicket(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// IssueTicket handles POST /api/tickets
func (h *Handler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req models.IssueTicketRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.ledger.IssueTicket(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusCreated, "Ticket issued", t)
}

// UpdateTicket handles PUT /api/tickets/{id}
func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTicketRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.ledger.UpdateTicket(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Ticket updated", t)
}

// CancelTicket handles POST /api/tickets/{id}/cancel
func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.CancelTicket(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Ticket cancelled", t)
}

// DeleteTicket handles DELETE /api/tickets/{id}
func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.DeleteTicket(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondMutation(w, http.StatusOK, "Ticket deleted", t)
}
