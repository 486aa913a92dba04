package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/session"
)

var borrowingFilters = []string{
	string(entities.BorrowingFilterAll),
	string(entities.BorrowingFilterBorrowed),
	string(entities.BorrowingFilterReturned),
	string(entities.BorrowingFilterOverdue),
}

type issueForm struct {
	BookID   string `form:"book_id"`
	MemberID string `form:"member_id"`
	Days     string `form:"days"`
}

func (f issueForm) input() (services.IssueInput, error) {
	bookID, err := services.ParseID("book_id", f.BookID)
	if err != nil {
		return services.IssueInput{}, err
	}
	memberID, err := services.ParseID("member_id", f.MemberID)
	if err != nil {
		return services.IssueInput{}, err
	}
	// blank days selects the loan policy default
	days, err := services.ParseInt("days", f.Days, 0)
	if err != nil {
		return services.IssueInput{}, err
	}
	return services.IssueInput{BookID: bookID, MemberID: memberID, Days: days}, nil
}

type BorrowingsController struct {
	pages
	circulation Circulation
	catalog     BookCatalog
	members     MemberDirectory
}

func NewBorrowingsController(p pages, circulation Circulation, catalog BookCatalog, members MemberDirectory) *BorrowingsController {
	return &BorrowingsController{pages: p, circulation: circulation, catalog: catalog, members: members}
}

// List renders borrowings filtered by ?status=all|borrowed|returned|overdue.
// GET /borrow
func (bc *BorrowingsController) List(c *gin.Context) {
	filter := entities.ParseBorrowingFilter(c.Query("status"))
	loans, err := bc.circulation.ListBorrowings(c.Request.Context(), filter)
	if err != nil {
		bc.internalError(c, err, "list borrowings")
		return
	}

	bc.render(c, http.StatusOK, "borrow", gin.H{
		"Title":        "Borrowings",
		"Loans":        loans,
		"FilterStatus": string(filter),
		"Filters":      borrowingFilters,
	})
}

// IssueForm offers the books with a copy on the shelf and every member.
// GET /borrow/issue
func (bc *BorrowingsController) IssueForm(c *gin.Context) {
	books, err := bc.catalog.ListAvailableBooks(c.Request.Context())
	if err != nil {
		bc.internalError(c, err, "list available books")
		return
	}
	members, err := bc.members.ListMembers(c.Request.Context(), "")
	if err != nil {
		bc.internalError(c, err, "list members")
		return
	}

	policy := bc.circulation.Policy()
	bc.render(c, http.StatusOK, "issue_book", gin.H{
		"Title":       "Issue a book",
		"Books":       books,
		"Members":     members,
		"DefaultDays": policy.DefaultDays,
		"MaxDays":     policy.MaxDays,
	})
}

// POST /borrow/issue
func (bc *BorrowingsController) Issue(c *gin.Context) {
	var form issueForm
	_ = c.ShouldBind(&form)

	in, err := form.input()
	var borrowing *entities.Borrowing
	if err == nil {
		borrowing, err = bc.circulation.Issue(c.Request.Context(), in)
	}
	switch {
	case err == nil:
		bc.redirect(c, "/borrow", session.FlashSuccess,
			fmt.Sprintf("Book %q issued to %s!", borrowing.Book.Title, borrowing.Member.Name))
	case services.IsPrecondition(err):
		bc.redirect(c, "/borrow", session.FlashError, "Book not available or invalid! "+err.Error())
	case services.IsValidation(err):
		bc.redirect(c, "/borrow/issue", session.FlashError, err.Error())
	default:
		bc.internalError(c, err, "issue book")
	}
}

// Return closes a loan. Returning a loan twice changes nothing.
// POST /borrow/return/:id
func (bc *BorrowingsController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	_, returned, err := bc.circulation.Return(c.Request.Context(), id)
	if err != nil {
		if services.IsNotFound(err) {
			c.String(http.StatusNotFound, "Borrowing not found")
			return
		}
		bc.internalError(c, err, "return book")
		return
	}

	if returned {
		bc.flash(c, session.FlashSuccess, "Book returned successfully!")
	}
	c.Redirect(http.StatusSeeOther, "/borrow")
}
