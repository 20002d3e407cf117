// Package handler содержит HTTP-обработчики API сервиса ЛиброНова.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/libronova-system/internal/metadata"
	"github.com/mmeshcher/libronova-system/internal/middleware"
	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
	"github.com/mmeshcher/libronova-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, login, password string) (int64, error)
	AuthenticateUser(ctx context.Context, login, password string) (int64, error)

	CreateBook(ctx context.Context, b *model.Book) (*model.Book, error)
	GetBook(ctx context.Context, id int64) (*model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	ListBooks(ctx context.Context, f repository.BookFilter) ([]model.Book, error)
	UpdateBook(ctx context.Context, b *model.Book) (*model.Book, error)
	DeactivateBook(ctx context.Context, id int64) error
	LookupBookMetadata(ctx context.Context, isbn string) (*metadata.BookInfo, error)

	CreateMember(ctx context.Context, m *model.Member) (*model.Member, error)
	GetMember(ctx context.Context, id int64) (*model.Member, error)
	GetMemberByMemberID(ctx context.Context, memberID string) (*model.Member, error)
	ListMembers(ctx context.Context, f repository.MemberFilter) ([]model.Member, error)
	UpdateMember(ctx context.Context, m *model.Member) (*model.Member, error)
	DeactivateMember(ctx context.Context, id int64) error

	CreateLoan(ctx context.Context, bookID, memberID, userID int64) (*model.Loan, error)
	ReturnLoan(ctx context.Context, loanID string) (*model.Loan, error)
	GetLoan(ctx context.Context, loanID string) (*model.Loan, error)
	ListLoans(ctx context.Context, f repository.LoanFilter) ([]model.Loan, error)
	SweepOverdue(ctx context.Context) (int64, error)
	CalculateFine(ctx context.Context, loanID string) (int64, error)
	GetLoanStatistics(ctx context.Context) (*repository.LoanStatistics, error)
}

// Handler реализует HTTP-обработчики API сервиса ЛиброНова.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового сотрудника.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeError(w, err, "register user")
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

// Login выполняет аутентификацию сотрудника и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

// writeError переводит ошибку бизнес-логики в HTTP-статус. Текст ожидаемых
// ошибок отдаётся клиенту как есть, внутренние ошибки скрываются за 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, repository.ErrBookNotFound),
		errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, repository.ErrLoanNotFound),
		errors.Is(err, metadata.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrISBNExists),
		errors.Is(err, repository.ErrMemberIDExists),
		errors.Is(err, repository.ErrBookInactive),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrStockOverflow),
		errors.Is(err, repository.ErrMemberInactive),
		errors.Is(err, repository.ErrQuotaExceeded),
		errors.Is(err, repository.ErrQuotaUnderflow),
		errors.Is(err, repository.ErrMemberHasLoans),
		errors.Is(err, service.ErrLoanAlreadyReturned):
		http.Error(w, err.Error(), http.StatusConflict)

	default:
		h.logger.Error(op+" error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}
