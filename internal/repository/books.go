package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/libronova-system/internal/model"
)

const bookColumns = `id, isbn, title, author, publisher, publication_date, category, stock, available_stock, active`

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Publisher,
		&b.PublicationDate, &b.Category, &b.Stock, &b.AvailableStock, &b.Active)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook сохраняет новую книгу. Свободный остаток равен общему фонду.
func (r *PostgresRepository) CreateBook(ctx context.Context, b *model.Book) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO books (isbn, title, author, publisher, publication_date, category, stock, available_stock, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7, TRUE)
		 RETURNING id`,
		b.ISBN, b.Title, b.Author, b.Publisher, b.PublicationDate, b.Category, b.Stock,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrISBNExists, b.ISBN)
		}
		return 0, fmt.Errorf("create book: %w", err)
	}
	return id, nil
}

// GetBookByID возвращает книгу по внутреннему идентификатору.
func (r *PostgresRepository) GetBookByID(ctx context.Context, id int64) (*model.Book, error) {
	b, err := scanBook(r.pool.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrBookNotFound, id)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// GetBookByISBN возвращает книгу по ISBN.
func (r *PostgresRepository) GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	b, err := scanBook(r.pool.QueryRow(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1`, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: isbn %s", ErrBookNotFound, isbn)
		}
		return nil, fmt.Errorf("get book by isbn: %w", err)
	}
	return b, nil
}

// BookFilter описывает критерии выборки книг.
type BookFilter struct {
	Search        string
	Category      string
	AvailableOnly bool
}

// ListBooks возвращает книги каталога, удовлетворяющие фильтру.
func (r *PostgresRepository) ListBooks(ctx context.Context, f BookFilter) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE TRUE`
	args := []any{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := fmt.Sprintf("$%d", len(args))
		query += ` AND (title ILIKE ` + n + ` OR author ILIKE ` + n + ` OR isbn ILIKE ` + n + `)`
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.AvailableOnly {
		query += ` AND active AND available_stock > 0`
	}
	query += ` ORDER BY title`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return books, nil
}

// UpdateBook обновляет описательные поля книги и общий фонд.
// Свободный остаток корректируется на ту же величину, что и общий фонд.
func (r *PostgresRepository) UpdateBook(ctx context.Context, b *model.Book) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE books
		 SET isbn = $2, title = $3, author = $4, publisher = $5,
		     publication_date = $6, category = $7,
		     available_stock = available_stock + ($8 - stock), stock = $8
		 WHERE id = $1`,
		b.ID, b.ISBN, b.Title, b.Author, b.Publisher, b.PublicationDate, b.Category, b.Stock,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrISBNExists, b.ISBN)
		}
		return fmt.Errorf("update book: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrBookNotFound, b.ID)
	}
	return nil
}

// DeactivateBook помечает книгу как списанную. Запись не удаляется.
func (r *PostgresRepository) DeactivateBook(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE books SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate book: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", ErrBookNotFound, id)
	}
	return nil
}

// ReserveBookStock уменьшает свободный остаток книги на один экземпляр.
// Проверка и запись выполняются под блокировкой строки книги, поэтому
// параллельные резервирования не могут увести остаток в минус.
func (r *PostgresRepository) ReserveBookStock(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var active bool
		var available int
		err = tx.QueryRow(ctx,
			`SELECT active, available_stock FROM books WHERE id = $1 FOR UPDATE`, id,
		).Scan(&active, &available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrBookNotFound, id)
			}
			return fmt.Errorf("lock book for update: %w", err)
		}

		if !active {
			return fmt.Errorf("%w: id %d", ErrBookInactive, id)
		}
		if available <= 0 {
			return fmt.Errorf("%w: book id %d", ErrInsufficientStock, id)
		}

		_, err = tx.Exec(ctx,
			`UPDATE books SET available_stock = available_stock - 1 WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ReleaseBookStock возвращает один экземпляр книги в свободный остаток.
// Остаток не может превысить общий фонд.
func (r *PostgresRepository) ReleaseBookStock(ctx context.Context, id int64) error {
	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var stock, available int
		err = tx.QueryRow(ctx,
			`SELECT stock, available_stock FROM books WHERE id = $1 FOR UPDATE`, id,
		).Scan(&stock, &available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: id %d", ErrBookNotFound, id)
			}
			return fmt.Errorf("lock book for update: %w", err)
		}

		if available >= stock {
			return fmt.Errorf("%w: book id %d", ErrStockOverflow, id)
		}

		_, err = tx.Exec(ctx,
			`UPDATE books SET available_stock = available_stock + 1 WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("release stock: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}
