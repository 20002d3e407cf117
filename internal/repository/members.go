package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/libronova-system/internal/model"
)

const memberColumns = `id, member_id, first_name, last_name, email, phone, address,
	birth_date, registration_date, membership_type, active, current_loans`

func scanMember(row pgx.Row) (*model.Member, error) {
	var m model.Member
	var membership string
	err := row.Scan(&m.ID, &m.MemberID, &m.FirstName, &m.LastName, &m.Email, &m.Phone,
		&m.Address, &m.BirthDate, &m.RegistrationDate, &membership, &m.Active, &m.CurrentLoans)
	if err != nil {
		return nil, err
	}
	m.Membership = model.MembershipType(membership)
	return &m, nil
}

// CreateMember сохраняет нового читателя.
func (r *PostgresRepository) CreateMember(ctx context.Context, m *model.Member) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO members (member_id, first_name, last_name, email, phone, address,
		                      birth_date, registration_date, membership_type, active, current_loans)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, 0)
		 RETURNING id`,
		m.MemberID, m.FirstName, m.LastName, m.Email, m.Phone, m.Address,
		m.BirthDate, m.RegistrationDate, string(m.Membership),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrMemberIDExists, m.MemberID)
		}
		return 0, fmt.Errorf("create member: %w", err)
	}
	return id, nil
}

// GetMemberByID возвращает читателя по внутреннему идентификатору.
func (r *PostgresRepository) GetMemberByID(ctx context.Context, id int64) (*model.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrMemberNotFound, id)
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetMemberByMemberID возвращает читателя по номеру читательского билета.
func (r *PostgresRepository) GetMemberByMemberID(ctx context.Context, memberID string) (*model.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE member_id = $1`, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
		}
		return nil, fmt.Errorf("get member by member id: %w", err)
	}
	return m, nil
}

// MemberFilter описывает критерии выборки читателей.
type MemberFilter struct {
	Search     string
	ActiveOnly bool
}

// ListMembers возвращает читателей, удовлетворяющих фильтру.
func (r *PostgresRepository) ListMembers(ctx context.Context, f MemberFilter) ([]model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE TRUE`
	args := []any{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := fmt.Sprintf("$%d", len(args))
		query += ` AND (first_name ILIKE ` + n + ` OR last_name ILIKE ` + n +
			` OR email ILIKE ` + n + ` OR member_id ILIKE ` + n + `)`
	}
	if f.ActiveOnly {
		query += ` AND active`
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return members, nil
}

// UpdateMember обновляет анкетные данные читателя. Счётчик выдач не затрагивается.
func (r *PostgresRepository) UpdateMember(ctx context.Context, m *model.Member) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE members
		 SET member_id = $2, first_name = $3, last_name = $4, email = $5,
		     phone = $6, address = $7, birth_date = $8, membership_type = $9
		 WHERE id = $1`,
		m.ID, m.MemberID, m.FirstName, m.LastName, m.Email,
		m.Phone, m.Address, m.BirthDate, string(m.Membership),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrMemberIDExists, m.MemberID)
		}
		return fmt.Errorf("update member: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrMemberNotFound, m.ID)
	}
	return nil
}

// DeactivateMember помечает читателя как неактивного.
// Деактивация запрещена, пока за читателем числятся невозвращённые книги.
func (r *PostgresRepository) DeactivateMember(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var current int
		err = tx.QueryRow(ctx,
			`SELECT current_loans FROM members WHERE id = $1 FOR UPDATE`, id,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrMemberNotFound, id)
			}
			return fmt.Errorf("lock member for update: %w", err)
		}

		if current > 0 {
			return fmt.Errorf("%w: id %d, loans %d", ErrMemberHasLoans, id, current)
		}

		_, err = tx.Exec(ctx, `UPDATE members SET active = FALSE WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deactivate member: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ReserveMemberQuota увеличивает счётчик выдач читателя на единицу.
// Проверка лимита и запись выполняются под блокировкой строки читателя.
func (r *PostgresRepository) ReserveMemberQuota(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var active bool
		var membership string
		var current int
		err = tx.QueryRow(ctx,
			`SELECT active, membership_type, current_loans FROM members WHERE id = $1 FOR UPDATE`, id,
		).Scan(&active, &membership, &current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrMemberNotFound, id)
			}
			return fmt.Errorf("lock member for update: %w", err)
		}

		if !active {
			return fmt.Errorf("%w: id %d", ErrMemberInactive, id)
		}
		if current >= model.MembershipType(membership).MaxLoans() {
			return fmt.Errorf("%w: member id %d, loans %d", ErrQuotaExceeded, id, current)
		}

		_, err = tx.Exec(ctx,
			`UPDATE members SET current_loans = current_loans + 1 WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("reserve quota: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ReleaseMemberQuota уменьшает счётчик выдач читателя на единицу.
func (r *PostgresRepository) ReleaseMemberQuota(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var current int
		err = tx.QueryRow(ctx,
			`SELECT current_loans FROM members WHERE id = $1 FOR UPDATE`, id,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrMemberNotFound, id)
			}
			return fmt.Errorf("lock member for update: %w", err)
		}

		if current <= 0 {
			return fmt.Errorf("%w: member id %d", ErrQuotaUnderflow, id)
		}

		_, err = tx.Exec(ctx,
			`UPDATE members SET current_loans = current_loans - 1 WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("release quota: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
