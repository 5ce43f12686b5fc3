// internal/circulation/handler.go
package circulation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the circulation endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/loans", h.handleIssue)
	r.Post("/returns", h.handleReturn)
	r.Get("/overdue", h.handleOverdue)
	r.Get("/items/{itemID}/availability", h.handleAvailability)
	r.Get("/members/{memberID}/loans", h.handleMemberLoans)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID uuid.UUID `json:"member_id"`
		ItemID   uuid.UUID `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.service.Issue(r.Context(), req.MemberID, req.ItemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID   uuid.UUID `json:"member_id"`
		ItemID     uuid.UUID `json:"item_id"`
		ReturnDate string    `json:"return_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	returnDate := time.Now()
	if req.ReturnDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ReturnDate)
		if err != nil {
			http.Error(w, "return_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		returnDate = parsed
	}

	rec, err := h.service.Return(r.Context(), req.MemberID, req.ItemID, returnDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "as_of must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	loans, err := h.service.Overdue(r.Context(), asOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if loans == nil {
		loans = []LoanRecord{}
	}
	h.writeJSON(w, http.StatusOK, loans)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid item ID", http.StatusBadRequest)
		return
	}

	available, total, err := h.service.AvailableCopies(r.Context(), itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{
		"available_copies": available,
		"total_copies":     total,
	})
}

func (h *Handler) handleMemberLoans(w http.ResponseWriter, r *http.Request) {
	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		http.Error(w, "invalid member ID", http.StatusBadRequest)
		return
	}

	loans, err := h.service.OpenLoansFor(r.Context(), memberID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if loans == nil {
		loans = []LoanRecord{}
	}
	h.writeJSON(w, http.StatusOK, loans)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoCopiesAvailable):
		return http.StatusConflict
	case errors.Is(err, ErrNoMatchingLoan),
		errors.Is(err, ErrUnknownItem),
		errors.Is(err, ErrUnknownMember),
		errors.Is(err, ErrLoanNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMemberIneligible):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidReturnDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrReportThrottled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
