package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/libronova-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса ЛиброНова.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", h.Register)
		r.Post("/user/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Route("/books", func(r chi.Router) {
				r.Post("/", h.CreateBook)
				r.Get("/", h.ListBooks)
				r.Get("/metadata/{isbn}", h.LookupBookMetadata)
				r.Get("/isbn/{isbn}", h.GetBookByISBN)
				r.Get("/{id}", h.GetBook)
				r.Put("/{id}", h.UpdateBook)
				r.Delete("/{id}", h.DeactivateBook)
			})

			r.Route("/members", func(r chi.Router) {
				r.Post("/", h.CreateMember)
				r.Get("/", h.ListMembers)
				r.Get("/card/{memberID}", h.GetMemberByCard)
				r.Get("/{id}", h.GetMember)
				r.Put("/{id}", h.UpdateMember)
				r.Delete("/{id}", h.DeactivateMember)
			})

			r.Route("/loans", func(r chi.Router) {
				r.Post("/", h.CreateLoan)
				r.Get("/", h.ListLoans)
				r.Post("/sweep", h.SweepOverdue)
				r.Get("/{loanID}", h.GetLoan)
				r.Post("/{loanID}/return", h.ReturnLoan)
				r.Get("/{loanID}/fine", h.GetLoanFine)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/books.csv", h.ExportBooks)
				r.Get("/members.csv", h.ExportMembers)
				r.Get("/loans.csv", h.ExportLoans)
				r.Get("/statistics", h.GetStatistics)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
