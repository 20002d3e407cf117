package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/libronova-system/internal/model"
	"github.com/mmeshcher/libronova-system/internal/repository"
)

const dateLayout = "2006-01-02"

type bookRequest struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Publisher       string `json:"publisher"`
	PublicationDate string `json:"publication_date"`
	Category        string `json:"category"`
	Stock           int    `json:"stock"`
}

type bookResponse struct {
	ID              int64  `json:"id"`
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Publisher       string `json:"publisher"`
	PublicationDate string `json:"publication_date"`
	Category        string `json:"category"`
	Stock           int    `json:"stock"`
	AvailableStock  int    `json:"available_stock"`
	Active          bool   `json:"active"`
}

func toBookResponse(b *model.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		PublicationDate: b.PublicationDate.Format(dateLayout),
		Category:        b.Category,
		Stock:           b.Stock,
		AvailableStock:  b.AvailableStock,
		Active:          b.Active,
	}
}

func (r bookRequest) toModel() (*model.Book, error) {
	var pubDate time.Time
	if r.PublicationDate != "" {
		var err error
		pubDate, err = time.Parse(dateLayout, r.PublicationDate)
		if err != nil {
			return nil, err
		}
	}

	return &model.Book{
		ISBN:            r.ISBN,
		Title:           r.Title,
		Author:          r.Author,
		Publisher:       r.Publisher,
		PublicationDate: pubDate,
		Category:        r.Category,
		Stock:           r.Stock,
	}, nil
}

// CreateBook добавляет новую книгу в каталог.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	book, err := req.toModel()
	if err != nil {
		http.Error(w, "invalid publication date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateBook(r.Context(), book)
	if err != nil {
		h.writeError(w, err, "create book")
		return
	}

	h.writeJSON(w, http.StatusCreated, toBookResponse(created))
}

// GetBook возвращает книгу по идентификатору.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get book")
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponse(book))
}

// GetBookByISBN возвращает книгу по ISBN.
func (h *Handler) GetBookByISBN(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBookByISBN(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		h.writeError(w, err, "get book by isbn")
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponse(book))
}

// ListBooks возвращает книги каталога с учётом параметров фильтрации.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	f := repository.BookFilter{
		Search:        r.URL.Query().Get("search"),
		Category:      r.URL.Query().Get("category"),
		AvailableOnly: r.URL.Query().Get("available") == "true",
	}

	books, err := h.service.ListBooks(r.Context(), f)
	if err != nil {
		h.writeError(w, err, "list books")
		return
	}

	resp := make([]bookResponse, 0, len(books))
	for i := range books {
		resp = append(resp, toBookResponse(&books[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateBook обновляет данные книги.
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	book, err := req.toModel()
	if err != nil {
		http.Error(w, "invalid publication date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	book.ID = id

	updated, err := h.service.UpdateBook(r.Context(), book)
	if err != nil {
		h.writeError(w, err, "update book")
		return
	}

	h.writeJSON(w, http.StatusOK, toBookResponse(updated))
}

// DeactivateBook списывает книгу из фонда.
func (h *Handler) DeactivateBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeactivateBook(r.Context(), id); err != nil {
		h.writeError(w, err, "deactivate book")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LookupBookMetadata возвращает данные о книге из внешнего каталога по ISBN.
func (h *Handler) LookupBookMetadata(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.LookupBookMetadata(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		h.writeError(w, err, "lookup book metadata")
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}
