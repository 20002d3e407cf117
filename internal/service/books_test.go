package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

func validBook() *model.Book {
	return &model.Book{
		ISBN:            "9780306406157",
		Title:           "Structure and Interpretation of Computer Programs",
		Author:          "Abelson, Sussman",
		Publisher:       "MIT Press",
		PublicationDate: time.Date(1996, 7, 25, 0, 0, 0, 0, time.UTC),
		Category:        "Computing",
		Stock:           5,
	}
}

func TestCreateBook_Success(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	created, err := svc.CreateBook(context.Background(), validBook())
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	if created.ID == 0 {
		t.Errorf("book must receive an id")
	}
	if created.AvailableStock != 5 {
		t.Errorf("available stock = %d, want stock value 5", created.AvailableStock)
	}
	if !created.Active {
		t.Errorf("new book must be active")
	}
}

func TestCreateBook_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *model.Book)
		wantErr error
	}{
		{"empty isbn", func(b *model.Book) { b.ISBN = "" }, ErrInvalidInput},
		{"bad isbn checksum", func(b *model.Book) { b.ISBN = "9780306406158" }, ErrInvalidInput},
		{"empty title", func(b *model.Book) { b.Title = " " }, ErrInvalidInput},
		{"empty author", func(b *model.Book) { b.Author = "" }, ErrInvalidInput},
		{"empty publisher", func(b *model.Book) { b.Publisher = "" }, ErrInvalidInput},
		{"empty category", func(b *model.Book) { b.Category = "" }, ErrInvalidInput},
		{"zero publication date", func(b *model.Book) { b.PublicationDate = time.Time{} }, ErrInvalidInput},
		{"negative stock", func(b *model.Book) { b.Stock = -1 }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			svc := newTestService(repo)

			b := validBook()
			tt.mutate(b)

			_, err := svc.CreateBook(context.Background(), b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(repo.books) != 0 {
				t.Errorf("invalid book must not be stored")
			}
		})
	}
}

func TestUpdateBook_StockBelowLentCopies(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	created, err := svc.CreateBook(context.Background(), validBook())
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	// Три экземпляра на руках.
	repo.books[created.ID].AvailableStock = 2

	updated := validBook()
	updated.ID = created.ID
	updated.Stock = 2

	_, err = svc.UpdateBook(context.Background(), updated)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateBook_StockChangeAdjustsAvailable(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	created, err := svc.CreateBook(context.Background(), validBook())
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	// Один экземпляр на руках, фонд увеличивается с 5 до 8.
	repo.books[created.ID].AvailableStock = 4

	updated := validBook()
	updated.ID = created.ID
	updated.Stock = 8

	got, err := svc.UpdateBook(context.Background(), updated)
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if got.AvailableStock != 7 {
		t.Errorf("available stock = %d, want 7", got.AvailableStock)
	}
}

func TestDeactivateBook_NotFound(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	err := svc.DeactivateBook(context.Background(), 42)
	if !errors.Is(err, repository.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}
