package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

// Число попыток вставки выдачи при коллизии сгенерированного номера.
const loanIDAttempts = 5

// CreateLoan оформляет выдачу книги читателю. Остаток книги, счётчик выдач
// читателя и запись о выдаче хранятся независимо, поэтому операция выполняется
// как последовательность шагов с компенсацией: при сбое резервирования остатка
// созданная запись удаляется; при сбое резервирования квоты читателя сначала
// освобождается остаток, затем удаляется запись. Неудача самой компенсации
// логируется, но наружу всегда возвращается исходная ошибка шага.
func (s *Service) CreateLoan(ctx context.Context, bookID, memberID, userID int64) (*model.Loan, error) {
	// Шаг 1: предварительные проверки без изменения состояния.
	book, err := s.repo.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.Active {
		return nil, fmt.Errorf("%w: id %d", repository.ErrBookInactive, bookID)
	}
	if book.AvailableStock <= 0 {
		return nil, fmt.Errorf("%w: book id %d", repository.ErrInsufficientStock, bookID)
	}

	member, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, fmt.Errorf("%w: id %d", repository.ErrMemberInactive, memberID)
	}
	if member.CurrentLoans >= member.MaxLoans() {
		return nil, fmt.Errorf("%w: member id %d, loans %d", repository.ErrQuotaExceeded, memberID, member.CurrentLoans)
	}

	// Шаг 2: создание записи о выдаче в статусе ACTIVE.
	today := s.today()
	loan := &model.Loan{
		BookID:   bookID,
		MemberID: memberID,
		UserID:   userID,
		LoanDate: today,
		DueDate:  today.AddDate(0, 0, s.loanPeriodDays),
		Status:   model.LoanStatusActive,
	}

	if err := s.insertLoanWithUniqueID(ctx, loan); err != nil {
		return nil, err
	}

	// Шаг 3: резервирование экземпляра книги.
	if err := s.repo.ReserveBookStock(ctx, bookID); err != nil {
		s.compensateLoanRecord(ctx, loan)
		return nil, err
	}

	// Шаг 4: резервирование квоты читателя. Компенсация идёт в порядке,
	// обратном прямому: сначала остаток книги, затем запись о выдаче.
	if err := s.repo.ReserveMemberQuota(ctx, memberID); err != nil {
		s.compensateBookReservation(ctx, loan)
		s.compensateLoanRecord(ctx, loan)
		return nil, err
	}

	s.logger.Info("loan created",
		zap.String("loanID", loan.LoanID),
		zap.Int64("bookID", bookID),
		zap.Int64("memberID", memberID))

	return loan, nil
}

// insertLoanWithUniqueID вставляет запись о выдаче, генерируя новый номер
// при каждой коллизии уникального ограничения.
func (s *Service) insertLoanWithUniqueID(ctx context.Context, loan *model.Loan) error {
	backoff := retry.WithMaxRetries(loanIDAttempts-1, retry.NewConstant(time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		loan.LoanID = generateLoanID()

		id, err := s.repo.CreateLoan(ctx, loan)
		if err != nil {
			if errors.Is(err, repository.ErrLoanIDTaken) {
				return retry.RetryableError(err)
			}
			return err
		}

		loan.ID = id
		return nil
	})
}

// compensateLoanRecord удаляет запись о выдаче, созданную на шаге 2.
func (s *Service) compensateLoanRecord(ctx context.Context, loan *model.Loan) {
	if err := s.repo.DeleteLoan(ctx, loan.ID); err != nil {
		s.logger.Warn("compensation failed: loan record not deleted",
			zap.String("loanID", loan.LoanID),
			zap.Error(err))
	}
}

// compensateBookReservation освобождает экземпляр книги, зарезервированный на шаге 3.
func (s *Service) compensateBookReservation(ctx context.Context, loan *model.Loan) {
	if err := s.repo.ReleaseBookStock(ctx, loan.BookID); err != nil {
		s.logger.Warn("compensation failed: book stock not released",
			zap.String("loanID", loan.LoanID),
			zap.Int64("bookID", loan.BookID),
			zap.Error(err))
	}
}

// ReturnLoan оформляет возврат книги по номеру выдачи. Книга физически
// возвращена, поэтому запись о выдаче переводится в RETURNED безусловно;
// последующие освобождения остатка и квоты выполняются по возможности,
// их сбой логируется и не откатывает возврат.
func (s *Service) ReturnLoan(ctx context.Context, loanID string) (*model.Loan, error) {
	loan, err := s.repo.GetLoanByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.IsReturned() {
		return nil, fmt.Errorf("%w: %s", ErrLoanAlreadyReturned, loanID)
	}

	today := s.today()
	wasOverdue := loan.IsOverdueAt(today)

	loan.MarkReturned(s.dailyFineCents, today)

	if err := s.repo.UpdateLoan(ctx, loan); err != nil {
		return nil, err
	}

	if wasOverdue {
		s.logger.Info("fine assessed on return",
			zap.String("loanID", loan.LoanID),
			zap.Int64("fineCents", loan.FineCents))
	}

	if err := s.repo.ReleaseBookStock(ctx, loan.BookID); err != nil {
		s.logger.Warn("book stock not released after return",
			zap.String("loanID", loan.LoanID),
			zap.Int64("bookID", loan.BookID),
			zap.Error(err))
	}

	if err := s.repo.ReleaseMemberQuota(ctx, loan.MemberID); err != nil {
		s.logger.Warn("member quota not released after return",
			zap.String("loanID", loan.LoanID),
			zap.Int64("memberID", loan.MemberID),
			zap.Error(err))
	}

	s.logger.Info("loan returned", zap.String("loanID", loan.LoanID))
	return loan, nil
}

// SweepOverdue переводит в статус OVERDUE все активные выдачи с истёкшим
// сроком и возвращает их число. Повторный запуск ничего не меняет.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkOverdueLoans(ctx, s.today())
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info("overdue sweep completed", zap.Int64("loans", count))
	}

	return count, nil
}

// StartOverdueSweeps запускает фоновый периодический перевод просроченных
// выдач в статус OVERDUE.
func (s *Service) StartOverdueSweeps(ctx context.Context) {
	if s.sweepInterval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepOverdue(ctx); err != nil {
					s.logger.Error("overdue sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// CalculateFine вычисляет штраф по выдаче в копейках, не меняя её состояния.
// Для возвращённой выдачи возвращается зафиксированный штраф, для остальных —
// текущая расчётная величина.
func (s *Service) CalculateFine(ctx context.Context, loanID string) (int64, error) {
	loan, err := s.repo.GetLoanByLoanID(ctx, loanID)
	if err != nil {
		return 0, err
	}

	if loan.IsReturned() {
		return loan.FineCents, nil
	}

	return loan.FineAt(s.dailyFineCents, s.today()), nil
}

// GetLoan возвращает выдачу по её номеру.
func (s *Service) GetLoan(ctx context.Context, loanID string) (*model.Loan, error) {
	return s.repo.GetLoanByLoanID(ctx, loanID)
}

// ListLoans возвращает выдачи по фильтру.
func (s *Service) ListLoans(ctx context.Context, f repository.LoanFilter) ([]model.Loan, error) {
	return s.repo.ListLoans(ctx, f)
}

// generateLoanID генерирует номер выдачи вида LOAN-3F2A9C01.
func generateLoanID() string {
	return "LOAN-" + strings.ToUpper(uuid.NewString()[:8])
}
