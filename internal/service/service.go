// Package service реализует бизнес-логику сервиса ЛиброНова:
// учёт книг и читателей и оркестрацию жизненного цикла выдач.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/libronova-system/internal/config"
	"github.com/mmeshcher/libronova-system/internal/metadata"
	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

// ErrInvalidInput возвращается при нарушении правил заполнения полей сущности.
var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrLoanAlreadyReturned возвращается при повторной попытке вернуть книгу.
	ErrLoanAlreadyReturned = errors.New("loan already returned")
	// ErrInvalidCredentials возвращается при неверном логине или пароле сотрудника.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
// Каждая операция атомарна в пределах одной сущности; совместной
// транзакции между сущностями хранилище не предоставляет.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)

	CreateBook(ctx context.Context, b *model.Book) (int64, error)
	GetBookByID(ctx context.Context, id int64) (*model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	ListBooks(ctx context.Context, f repository.BookFilter) ([]model.Book, error)
	UpdateBook(ctx context.Context, b *model.Book) error
	DeactivateBook(ctx context.Context, id int64) error
	ReserveBookStock(ctx context.Context, id int64) error
	ReleaseBookStock(ctx context.Context, id int64) error

	CreateMember(ctx context.Context, m *model.Member) (int64, error)
	GetMemberByID(ctx context.Context, id int64) (*model.Member, error)
	GetMemberByMemberID(ctx context.Context, memberID string) (*model.Member, error)
	ListMembers(ctx context.Context, f repository.MemberFilter) ([]model.Member, error)
	UpdateMember(ctx context.Context, m *model.Member) error
	DeactivateMember(ctx context.Context, id int64) error
	ReserveMemberQuota(ctx context.Context, id int64) error
	ReleaseMemberQuota(ctx context.Context, id int64) error

	CreateLoan(ctx context.Context, l *model.Loan) (int64, error)
	GetLoanByID(ctx context.Context, id int64) (*model.Loan, error)
	GetLoanByLoanID(ctx context.Context, loanID string) (*model.Loan, error)
	ListLoans(ctx context.Context, f repository.LoanFilter) ([]model.Loan, error)
	UpdateLoan(ctx context.Context, l *model.Loan) error
	DeleteLoan(ctx context.Context, id int64) error
	MarkOverdueLoans(ctx context.Context, before time.Time) (int64, error)
	GetLoanStatistics(ctx context.Context) (*repository.LoanStatistics, error)
}

// Service содержит бизнес-логику сервиса ЛиброНова.
type Service struct {
	repo          Repository
	catalogClient *metadata.Client
	logger        *zap.Logger

	loanPeriodDays int
	dailyFineCents int64
	sweepInterval  time.Duration

	now func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием, клиентом
// внешнего каталога и логгером.
func NewService(repo Repository, catalogClient *metadata.Client, logger *zap.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:           repo,
		catalogClient:  catalogClient,
		logger:         logger,
		loanPeriodDays: cfg.LoanPeriodDays,
		dailyFineCents: cfg.DailyFineRateCents(),
		sweepInterval:  cfg.SweepInterval,
		now:            time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// today возвращает текущую календарную дату.
func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// RegisterUser регистрирует нового сотрудника.
func (s *Service) RegisterUser(ctx context.Context, login, password string) (int64, error) {
	if login == "" || password == "" {
		return 0, fmt.Errorf("%w: login and password are required", ErrInvalidInput)
	}

	hashed := hashPassword(login, password)
	id, err := s.repo.CreateUser(ctx, login, hashed)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет логин и пароль сотрудника и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (int64, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	hashed := hashPassword(login, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// LookupBookMetadata запрашивает библиографические данные по ISBN
// во внешнем каталоге.
func (s *Service) LookupBookMetadata(ctx context.Context, isbn string) (*metadata.BookInfo, error) {
	if s.catalogClient == nil {
		return nil, fmt.Errorf("catalog client not configured")
	}
	return s.catalogClient.GetBookInfo(ctx, isbn)
}

// GetLoanStatistics возвращает сводку по выдачам.
func (s *Service) GetLoanStatistics(ctx context.Context) (*repository.LoanStatistics, error) {
	return s.repo.GetLoanStatistics(ctx)
}
