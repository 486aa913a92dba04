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

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"978-0-441-17271-9", "9780441172719"},
		{"0-441-17271-7", "0441172717"},
		{"978 0 441 17271 9", "9780441172719"},
		{"9780441172719", "9780441172719"},
		{"123", ""},            // Too short
		{"12345678901234", ""}, // Too long
		{"", ""},
		{"  978-0-441-17271-9  ", "9780441172719"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeISBN(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeISBN(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"1965", 1965},
		{"August 1, 1965", 1965},
		{"Aug 1, 1965", 1965},
		{"2005-08-02", 2005},
		{"August 1990", 1990},
		{"Published in 1999", 1999},
		{"", 0},
		{"no year here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := extractYear(tt.input)
			if result != tt.expected {
				t.Errorf("extractYear(%q) = %d, expected %d", tt.input, result, tt.expected)
			}
		})
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/9780441172719.json":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"key":             "/books/OL1M",
				"title":           "Dune",
				"publishers":      []string{"Ace"},
				"publish_date":    "1990",
				"number_of_pages": 535,
				"authors":         []map[string]string{{"key": "/authors/OL2A"}},
				"description":     map[string]string{"type": "/type/text", "value": "Set on the desert planet Arrakis."},
				"subjects":        []string{"Science Fiction", "Arrakis"},
			})
		case "/authors/OL2A.json":
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "Frank Herbert"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestLookupISBN(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewOpenLibraryClient(server.URL, 0)

	metadata, err := client.LookupISBN(context.Background(), "978-0-441-17271-9")
	if err != nil {
		t.Fatalf("LookupISBN failed: %v", err)
	}

	if metadata.Title != "Dune" {
		t.Errorf("expected title 'Dune', got %q", metadata.Title)
	}
	if metadata.Author != "Frank Herbert" {
		t.Errorf("expected author 'Frank Herbert', got %q", metadata.Author)
	}
	if metadata.Publisher != "Ace" {
		t.Errorf("expected publisher 'Ace', got %q", metadata.Publisher)
	}
	if metadata.PublicationYear != 1990 {
		t.Errorf("expected year 1990, got %d", metadata.PublicationYear)
	}
	if metadata.Description != "Set on the desert planet Arrakis." {
		t.Errorf("unexpected description %q", metadata.Description)
	}
	if metadata.Category() != "Science Fiction" {
		t.Errorf("expected category 'Science Fiction', got %q", metadata.Category())
	}
}

func TestLookupISBN_NotFound(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	client := NewOpenLibraryClient(server.URL, 0)

	_, err := client.LookupISBN(context.Background(), "0000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupISBN_InvalidISBN(t *testing.T) {
	client := NewOpenLibraryClient("", time.Second)

	_, err := client.LookupISBN(context.Background(), "invalid")
	if err == nil {
		t.Error("expected error for invalid ISBN")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	_ = rl.wait(ctx)
	_ = rl.wait(ctx)
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Errorf("rate limiter did not wait: elapsed=%v", elapsed)
	}
}

func TestRateLimiter_Cancelled(t *testing.T) {
	rl := newRateLimiter(time.Hour)
	_ = rl.wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
