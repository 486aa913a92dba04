package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/metadata"
	"github.com/mrlokans/librarydesk/internal/services"
)

// BookSummary is the JSON projection of a book used by the issue form.
type BookSummary struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Category  string `json:"category"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
}

// MemberSummary is the JSON projection of a member.
type MemberSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type APIController struct {
	catalog     BookCatalog
	members     MemberDirectory
	circulation Circulation
	stats       StatsProvider
	isbn        metadata.ISBNLookup
}

func NewAPIController(catalog BookCatalog, members MemberDirectory, circulation Circulation, stats StatsProvider, isbn metadata.ISBNLookup) *APIController {
	return &APIController{
		catalog:     catalog,
		members:     members,
		circulation: circulation,
		stats:       stats,
		isbn:        isbn,
	}
}

// GET /api/book/:id
func (ac *APIController) GetBook(c *gin.Context) {
	id, ok := parseAPIIDParam(c, "id", "Book")
	if !ok {
		return
	}

	book, err := ac.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		if services.IsNotFound(err) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "api get book")
		return
	}

	c.JSON(http.StatusOK, BookSummary{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		ISBN:      book.ISBN,
		Category:  book.Category,
		Available: book.AvailableCopies,
		Total:     book.Quantity,
	})
}

// GET /api/member/:id
func (ac *APIController) GetMember(c *gin.Context) {
	id, ok := parseAPIIDParam(c, "id", "Member")
	if !ok {
		return
	}

	member, err := ac.members.GetMember(c.Request.Context(), id)
	if err != nil {
		if services.IsNotFound(err) {
			respondNotFound(c, "Member")
			return
		}
		respondInternalError(c, err, "api get member")
		return
	}

	c.JSON(http.StatusOK, MemberSummary{
		ID:    member.ID,
		Name:  member.Name,
		Email: member.Email,
		Phone: member.Phone,
	})
}

// ListBorrowings returns loans with their computed overdue fields.
// GET /api/borrowings?status=
func (ac *APIController) ListBorrowings(c *gin.Context) {
	filter := entities.ParseBorrowingFilter(c.Query("status"))
	loans, err := ac.circulation.ListBorrowings(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "api list borrowings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     filter,
		"borrowings": loans,
		"total":      len(loans),
	})
}

// GET /api/borrowings/:id
func (ac *APIController) GetBorrowing(c *gin.Context) {
	id, ok := parseAPIIDParam(c, "id", "Borrowing")
	if !ok {
		return
	}

	loan, err := ac.circulation.GetBorrowing(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "api get borrowing")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// GET /api/stats
func (ac *APIController) Stats(c *gin.Context) {
	stats, err := ac.stats.Stats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "api stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// LookupISBN fetches catalogue data from OpenLibrary to prefill the add form.
// GET /api/isbn/:isbn
func (ac *APIController) LookupISBN(c *gin.Context) {
	isbn := metadata.NormalizeISBN(c.Param("isbn"))
	if isbn == "" {
		respondBadRequest(c, "invalid ISBN")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	meta, err := ac.isbn.LookupISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			respondNotFound(c, "ISBN")
			return
		}
		respondInternalError(c, err, "isbn lookup")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isbn":        meta.ISBN,
		"title":       meta.Title,
		"author":      meta.Author,
		"category":    meta.Category(),
		"description": meta.Description,
		"publisher":   meta.Publisher,
		"year":        meta.PublicationYear,
	})
}
