package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
	"github.com/mmeshcher/libronova-system/internal/validation"
)

// CreateBook создаёт новую книгу с проверкой полей и уникальности ISBN.
func (s *Service) CreateBook(ctx context.Context, b *model.Book) (*model.Book, error) {
	if err := validateBook(b); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateBook(ctx, b)
	if err != nil {
		return nil, err
	}

	b.ID = id
	b.AvailableStock = b.Stock
	b.Active = true

	s.logger.Info("book created", zap.String("isbn", b.ISBN), zap.Int64("id", id))
	return b, nil
}

// GetBook возвращает книгу по внутреннему идентификатору.
func (s *Service) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	return s.repo.GetBookByID(ctx, id)
}

// GetBookByISBN возвращает книгу по ISBN.
func (s *Service) GetBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return s.repo.GetBookByISBN(ctx, isbn)
}

// ListBooks возвращает книги каталога по фильтру.
func (s *Service) ListBooks(ctx context.Context, f repository.BookFilter) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, f)
}

// UpdateBook обновляет данные книги с проверкой полей.
func (s *Service) UpdateBook(ctx context.Context, b *model.Book) (*model.Book, error) {
	if err := validateBook(b); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBookByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	// Уменьшать фонд ниже числа выданных экземпляров нельзя.
	lent := existing.Stock - existing.AvailableStock
	if b.Stock < lent {
		return nil, fmt.Errorf("%w: stock %d is below %d lent copies", ErrInvalidInput, b.Stock, lent)
	}

	if err := s.repo.UpdateBook(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("book updated", zap.String("isbn", b.ISBN), zap.Int64("id", b.ID))
	return s.repo.GetBookByID(ctx, b.ID)
}

// DeactivateBook списывает книгу: запись остаётся, но выдача становится невозможной.
func (s *Service) DeactivateBook(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateBook(ctx, id); err != nil {
		return err
	}
	s.logger.Info("book deactivated", zap.Int64("id", id))
	return nil
}

func validateBook(b *model.Book) error {
	switch {
	case strings.TrimSpace(b.ISBN) == "":
		return fmt.Errorf("%w: isbn is required", ErrInvalidInput)
	case !validation.IsValidISBN(b.ISBN):
		return fmt.Errorf("%w: isbn %q has invalid checksum", ErrInvalidInput, b.ISBN)
	case strings.TrimSpace(b.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case strings.TrimSpace(b.Author) == "":
		return fmt.Errorf("%w: author is required", ErrInvalidInput)
	case strings.TrimSpace(b.Publisher) == "":
		return fmt.Errorf("%w: publisher is required", ErrInvalidInput)
	case strings.TrimSpace(b.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	case b.PublicationDate.IsZero():
		return fmt.Errorf("%w: publication date is required", ErrInvalidInput)
	case b.Stock < 0:
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalidInput)
	}
	return nil
}
