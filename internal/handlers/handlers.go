package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/cx-tal-miterani/airline-backoffice/internal/service"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	codeValidationFailed = "VALIDATION_FAILED"
	codeInternal         = "INTERNAL_ERROR"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	ledger   service.Service
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates a new Handler instance
func NewHandler(ledger service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ledger:   ledger,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message, Code: code})
}

func respondMutation(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, models.MutationResponse{Message: message, Data: data})
}

// statusFor maps a ledger failure onto an HTTP status. Refusals to destroy
// a record that is in use are reported as forbidden.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrAircraftInFlight),
		errors.Is(err, service.ErrAircraftAlreadyBooked),
		errors.Is(err, service.ErrFlightAlreadyBooked):
		return http.StatusForbidden
	}

	switch service.KindOf(err) {
	case service.KindNotFound, service.KindReferenceNotFound:
		return http.StatusNotFound
	case service.KindValidation, service.KindIdentifierMismatch, service.KindBusinessRule, service.KindInventoryInvariant:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		respondError(w, status, codeInternal, "internal server error")
		return
	}

	var e *service.Error
	errors.As(err, &e)
	respondError(w, status, e.Code, e.Message)
}

// decode reads a JSON body into v and runs the struct validation tags
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var enumErr *models.InvalidEnumError
		if errors.As(err, &enumErr) {
			code := "INVALID_" + strings.ToUpper(strings.ReplaceAll(enumErr.Enum, " ", "_"))
			respondError(w, http.StatusBadRequest, code, enumErr.Error())
			return false
		}
		respondError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
