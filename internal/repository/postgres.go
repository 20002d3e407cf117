// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать сотрудника с уже существующим логином.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если сотрудник не найден.
	ErrUserNotFound = errors.New("user not found")

	// ErrBookNotFound возвращается, если книга не найдена.
	ErrBookNotFound = errors.New("book not found")
	// ErrBookInactive возвращается при попытке выдать списанную книгу.
	ErrBookInactive = errors.New("book is inactive")
	// ErrISBNExists возвращается при попытке создать книгу с уже существующим ISBN.
	ErrISBNExists = errors.New("isbn already exists")
	// ErrInsufficientStock возвращается, когда свободных экземпляров книги не осталось.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockOverflow возвращается, когда свободный остаток уже равен общему фонду.
	// Указывает на ошибку учёта выше по стеку.
	ErrStockOverflow = errors.New("available stock already at maximum")

	// ErrMemberNotFound возвращается, если читатель не найден.
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberInactive возвращается при попытке выдачи неактивному читателю.
	ErrMemberInactive = errors.New("member is inactive")
	// ErrMemberIDExists возвращается при попытке создать читателя с занятым номером билета.
	ErrMemberIDExists = errors.New("member id already exists")
	// ErrQuotaExceeded возвращается, когда читатель исчерпал лимит выдач.
	ErrQuotaExceeded = errors.New("member loan quota exceeded")
	// ErrQuotaUnderflow возвращается при попытке уменьшить нулевой счётчик выдач.
	ErrQuotaUnderflow = errors.New("member has no loans to release")
	// ErrMemberHasLoans возвращается при попытке деактивации читателя с невозвращёнными книгами.
	ErrMemberHasLoans = errors.New("member has outstanding loans")

	// ErrLoanNotFound возвращается, если выдача не найдена.
	ErrLoanNotFound = errors.New("loan not found")
	// ErrLoanIDTaken возвращается при коллизии сгенерированного номера выдачи.
	// Ошибка подлежит повтору с новым номером.
	ErrLoanIDTaken = errors.New("loan id already taken")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет операцию при конфликтах сериализации, дедлоках и сетевых сбоях.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
