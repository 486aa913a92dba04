package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	userAgent      = "LibraryDesk/1.0 (https://github.com/mrlokans/librarydesk)"
	maxSubjects    = 10
)

// ErrNotFound is returned when OpenLibrary has no record for an ISBN.
var ErrNotFound = errors.New("isbn not found")

// BookMetadata is the catalogue information OpenLibrary holds for an edition.
type BookMetadata struct {
	Title           string   `json:"title,omitempty"`
	Author          string   `json:"author,omitempty"`
	ISBN            string   `json:"isbn,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	PublicationYear int      `json:"publication_year,omitempty"`
	Description     string   `json:"description,omitempty"`
	Subjects        []string `json:"subjects,omitempty"`
	PageCount       int      `json:"page_count,omitempty"`
}

// Category returns the first subject, which is the closest OpenLibrary has to
// a shelving category.
func (m *BookMetadata) Category() string {
	if len(m.Subjects) == 0 {
		return ""
	}
	return m.Subjects[0]
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

// wait blocks until the next call is allowed or ctx is done.
func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since := time.Since(r.lastCall); since < r.interval {
		timer := time.NewTimer(r.interval - since)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewOpenLibraryClient creates a client for baseURL (DefaultBaseURL when
// empty) allowing one request per interval.
func NewOpenLibraryClient(baseURL string, interval time.Duration) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: newRateLimiter(interval),
	}
}

// LookupISBN returns the metadata of the edition with the given ISBN-10 or
// ISBN-13. Hyphens and spaces are ignored.
func (c *OpenLibraryClient) LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	normalized := NormalizeISBN(isbn)
	if normalized == "" {
		return nil, fmt.Errorf("invalid ISBN %q", isbn)
	}

	var edition openLibraryEdition
	if err := c.getJSON(ctx, "/isbn/"+normalized+".json", &edition); err != nil {
		return nil, err
	}

	metadata := edition.toMetadata(normalized)

	if len(edition.Authors) > 0 {
		if name, err := c.fetchAuthorName(ctx, edition.Authors[0].Key); err == nil {
			metadata.Author = name
		}
	}

	return metadata, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}

	var author struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, authorKey+".json", &author); err != nil {
		return "", err
	}
	return author.Name, nil
}

func (c *OpenLibraryClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// NormalizeISBN strips hyphens and spaces and returns "" unless the result
// has the length of an ISBN-10 or ISBN-13.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// extractYear tries to extract a 4-digit year from a date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	for i := 0; i <= len(dateStr)-4; i++ {
		var year int
		if _, err := fmt.Sscanf(dateStr[i:i+4], "%4d", &year); err == nil && year > 1000 && year < 3000 {
			return year
		}
	}
	return 0
}

type openLibraryEdition struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"` // string or {type, value}
	Subjects      []string    `json:"subjects"`
}

type authorRef struct {
	Key string `json:"key"`
}

func (e *openLibraryEdition) toMetadata(isbn string) *BookMetadata {
	metadata := &BookMetadata{
		Title:           e.Title,
		ISBN:            isbn,
		PageCount:       e.NumberOfPages,
		PublicationYear: extractYear(e.PublishDate),
	}

	if len(e.Publishers) > 0 {
		metadata.Publisher = e.Publishers[0]
	}

	switch v := e.Description.(type) {
	case string:
		metadata.Description = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			metadata.Description = val
		}
	}

	metadata.Subjects = e.Subjects
	if len(metadata.Subjects) > maxSubjects {
		metadata.Subjects = metadata.Subjects[:maxSubjects]
	}

	return metadata
}
