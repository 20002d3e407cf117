package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/libronova-system/internal/export"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

// ExportBooks отдаёт каталог книг в формате CSV.
func (h *Handler) ExportBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context(), repository.BookFilter{})
	if err != nil {
		h.writeError(w, err, "export books")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="books.csv"`)

	if err := export.WriteBookCatalog(w, books); err != nil {
		h.logger.Error("export books error", zap.Error(err))
	}
}

// ExportMembers отдаёт список читателей в формате CSV.
func (h *Handler) ExportMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), repository.MemberFilter{})
	if err != nil {
		h.writeError(w, err, "export members")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="members.csv"`)

	if err := export.WriteMembers(w, members); err != nil {
		h.logger.Error("export members error", zap.Error(err))
	}
}

// ExportLoans отдаёт список выдач в формате CSV.
func (h *Handler) ExportLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context(), repository.LoanFilter{})
	if err != nil {
		h.writeError(w, err, "export loans")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="loans.csv"`)

	if err := export.WriteLoans(w, loans); err != nil {
		h.logger.Error("export loans error", zap.Error(err))
	}
}

type statisticsResponse struct {
	ActiveLoans  int64   `json:"active_loans"`
	OverdueLoans int64   `json:"overdue_loans"`
	TotalFines   float64 `json:"total_fines"`
}

// GetStatistics возвращает сводку по выдачам.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetLoanStatistics(r.Context())
	if err != nil {
		h.writeError(w, err, "loan statistics")
		return
	}

	h.writeJSON(w, http.StatusOK, statisticsResponse{
		ActiveLoans:  stats.ActiveCount,
		OverdueLoans: stats.OverdueCount,
		TotalFines:   float64(stats.TotalFinesCents) / 100,
	})
}
