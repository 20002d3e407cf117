package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/libronova-system/internal/model"
)

const loanColumns = `id, loan_id, book_id, member_id, user_id, loan_date, due_date,
	return_date, status, fine_cents, notes`

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var l model.Loan
	var status string
	err := row.Scan(&l.ID, &l.LoanID, &l.BookID, &l.MemberID, &l.UserID,
		&l.LoanDate, &l.DueDate, &l.ReturnDate, &status, &l.FineCents, &l.Notes)
	if err != nil {
		return nil, err
	}
	l.Status = model.LoanStatus(status)
	return &l, nil
}

// CreateLoan сохраняет новую выдачу. Уникальность номера выдачи обеспечивает
// ограничение БД: при коллизии возвращается ErrLoanIDTaken, и вызывающая
// сторона генерирует новый номер.
func (r *PostgresRepository) CreateLoan(ctx context.Context, l *model.Loan) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO loans (loan_id, book_id, member_id, user_id, loan_date, due_date, status, fine_cents, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		l.LoanID, l.BookID, l.MemberID, l.UserID, l.LoanDate, l.DueDate,
		string(l.Status), l.FineCents, l.Notes,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrLoanIDTaken, l.LoanID)
		}
		return 0, fmt.Errorf("create loan: %w", err)
	}
	return id, nil
}

// GetLoanByID возвращает выдачу по внутреннему идентификатору.
func (r *PostgresRepository) GetLoanByID(ctx context.Context, id int64) (*model.Loan, error) {
	l, err := scanLoan(r.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrLoanNotFound, id)
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return l, nil
}

// GetLoanByLoanID возвращает выдачу по её номеру.
func (r *PostgresRepository) GetLoanByLoanID(ctx context.Context, loanID string) (*model.Loan, error) {
	l, err := scanLoan(r.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE loan_id = $1`, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, loanID)
		}
		return nil, fmt.Errorf("get loan by loan id: %w", err)
	}
	return l, nil
}

// LoanFilter описывает критерии выборки выдач.
type LoanFilter struct {
	Status   model.LoanStatus
	MemberID int64
	BookID   int64
}

// ListLoans возвращает выдачи, удовлетворяющие фильтру.
func (r *PostgresRepository) ListLoans(ctx context.Context, f LoanFilter) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE TRUE`
	args := []any{}

	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.MemberID != 0 {
		args = append(args, f.MemberID)
		query += fmt.Sprintf(` AND member_id = $%d`, len(args))
	}
	if f.BookID != 0 {
		args = append(args, f.BookID)
		query += fmt.Sprintf(` AND book_id = $%d`, len(args))
	}
	query += ` ORDER BY loan_date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select loans: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return loans, nil
}

// UpdateLoan сохраняет изменённое состояние выдачи: статус, дату возврата и штраф.
func (r *PostgresRepository) UpdateLoan(ctx context.Context, l *model.Loan) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE loans
		 SET status = $2, return_date = $3, fine_cents = $4, notes = $5
		 WHERE id = $1`,
		l.ID, string(l.Status), l.ReturnDate, l.FineCents, l.Notes,
	)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrLoanNotFound, l.ID)
	}
	return nil
}

// DeleteLoan удаляет запись о выдаче. Используется только как компенсация
// при неудачном оформлении.
func (r *PostgresRepository) DeleteLoan(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrLoanNotFound, id)
	}
	return nil
}

// MarkOverdueLoans переводит в статус OVERDUE все активные выдачи, срок
// которых истёк до указанной даты, и возвращает число обновлённых записей.
// Повторный вызов ничего не меняет.
func (r *PostgresRepository) MarkOverdueLoans(ctx context.Context, before time.Time) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE loans SET status = $1 WHERE status = $2 AND due_date < $3`,
		string(model.LoanStatusOverdue), string(model.LoanStatusActive), before,
	)
	if err != nil {
		return 0, fmt.Errorf("mark overdue loans: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// LoanStatistics содержит сводные показатели по выдачам.
type LoanStatistics struct {
	ActiveCount     int64
	OverdueCount    int64
	TotalFinesCents int64
}

// GetLoanStatistics возвращает сводку по активным и просроченным выдачам
// и общую сумму начисленных штрафов.
func (r *PostgresRepository) GetLoanStatistics(ctx context.Context) (*LoanStatistics, error) {
	var s LoanStatistics
	err := r.pool.QueryRow(ctx,
		`SELECT
		    COUNT(*) FILTER (WHERE status = $1),
		    COUNT(*) FILTER (WHERE status = $2),
		    COALESCE(SUM(fine_cents), 0)
		 FROM loans`,
		string(model.LoanStatusActive), string(model.LoanStatusOverdue),
	).Scan(&s.ActiveCount, &s.OverdueCount, &s.TotalFinesCents)
	if err != nil {
		return nil, fmt.Errorf("loan statistics: %w", err)
	}
	return &s, nil
}
