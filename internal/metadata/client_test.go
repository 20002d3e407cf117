package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetBookInfo_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/books/9780306406157" {
			t.Fatalf("path = %s, want /api/books/9780306406157", r.URL.Path)
		}

		resp := BookInfo{
			ISBN:          "9780306406157",
			Title:         "The Go Programming Language",
			Author:        "Donovan, Kernighan",
			Publisher:     "Addison-Wesley",
			PublishedDate: "2015-10-26",
			Category:      "Computing",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	info, err := client.GetBookInfo(ctx, "9780306406157")
	if err != nil {
		t.Fatalf("GetBookInfo error: %v", err)
	}
	if info.Title != "The Go Programming Language" {
		t.Fatalf("unexpected response: %+v", info)
	}
}

func TestGetBookInfo_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.GetBookInfo(ctx, "9999999999999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBookInfo_RetriesServerErrors(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(BookInfo{ISBN: "9780306406157", Title: "Recovered"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	client.httpClient.RetryWaitMin = time.Millisecond
	client.httpClient.RetryWaitMax = 2 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := client.GetBookInfo(ctx, "9780306406157")
	if err != nil {
		t.Fatalf("GetBookInfo error: %v", err)
	}
	if info.Title != "Recovered" {
		t.Fatalf("unexpected response: %+v", info)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestGetBookInfo_NotConfigured(t *testing.T) {
	client := NewClient("")

	_, err := client.GetBookInfo(context.Background(), "9780306406157")
	if err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
