package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/libronova-system/internal/middleware"
	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

type loanRequest struct {
	BookID   int64 `json:"book_id"`
	MemberID int64 `json:"member_id"`
}

type loanResponse struct {
	ID         int64   `json:"id"`
	LoanID     string  `json:"loan_id"`
	BookID     int64   `json:"book_id"`
	MemberID   int64   `json:"member_id"`
	UserID     int64   `json:"user_id"`
	LoanDate   string  `json:"loan_date"`
	DueDate    string  `json:"due_date"`
	ReturnDate *string `json:"return_date,omitempty"`
	Status     string  `json:"status"`
	Fine       float64 `json:"fine"`
	Notes      string  `json:"notes,omitempty"`
}

func toLoanResponse(l *model.Loan) loanResponse {
	resp := loanResponse{
		ID:       l.ID,
		LoanID:   l.LoanID,
		BookID:   l.BookID,
		MemberID: l.MemberID,
		UserID:   l.UserID,
		LoanDate: l.LoanDate.Format(dateLayout),
		DueDate:  l.DueDate.Format(dateLayout),
		Status:   string(l.Status),
		Fine:     float64(l.FineCents) / 100,
		Notes:    l.Notes,
	}
	if l.ReturnDate != nil {
		s := l.ReturnDate.Format(dateLayout)
		resp.ReturnDate = &s
	}
	return resp
}

// CreateLoan оформляет выдачу книги читателю от имени текущего сотрудника.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req loanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.BookID == 0 || req.MemberID == 0 {
		http.Error(w, "book_id and member_id are required", http.StatusBadRequest)
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), req.BookID, req.MemberID, userID)
	if err != nil {
		h.writeError(w, err, "create loan")
		return
	}

	h.writeJSON(w, http.StatusCreated, toLoanResponse(loan))
}

// ReturnLoan оформляет возврат книги по номеру выдачи.
func (h *Handler) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.ReturnLoan(r.Context(), chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(w, err, "return loan")
		return
	}

	h.writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

// GetLoan возвращает выдачу по её номеру.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(w, err, "get loan")
		return
	}

	h.writeJSON(w, http.StatusOK, toLoanResponse(loan))
}

// ListLoans возвращает выдачи с учётом параметров фильтрации.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	f := repository.LoanFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		ls := model.LoanStatus(status)
		if !ls.Valid() {
			http.Error(w, "unknown loan status: "+status, http.StatusBadRequest)
			return
		}
		f.Status = ls
	}
	if v := r.URL.Query().Get("member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		f.MemberID = id
	}
	if v := r.URL.Query().Get("book_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		f.BookID = id
	}

	loans, err := h.service.ListLoans(r.Context(), f)
	if err != nil {
		h.writeError(w, err, "list loans")
		return
	}

	resp := make([]loanResponse, 0, len(loans))
	for i := range loans {
		resp = append(resp, toLoanResponse(&loans[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetLoanFine возвращает расчётный штраф по выдаче, не меняя её состояния.
func (h *Handler) GetLoanFine(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	fineCents, err := h.service.CalculateFine(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err, "calculate fine")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"loan_id": loanID,
		"fine":    float64(fineCents) / 100,
	})
}

// SweepOverdue запускает перевод просроченных выдач в статус OVERDUE.
func (h *Handler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.SweepOverdue(r.Context())
	if err != nil {
		h.writeError(w, err, "sweep overdue")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int64{"transitioned": count})
}
