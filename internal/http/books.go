package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/session"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// bookForm holds the submitted fields as typed, so a rejected form is
// redisplayed exactly.
type bookForm struct {
	Title       string `form:"title"`
	Author      string `form:"author"`
	ISBN        string `form:"isbn"`
	Category    string `form:"category"`
	Quantity    string `form:"quantity"`
	Description string `form:"description"`
}

func bookFormFrom(b *entities.Book) bookForm {
	return bookForm{
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		Category:    b.Category,
		Quantity:    strconv.Itoa(b.Quantity),
		Description: b.Description,
	}
}

func (f bookForm) input() (services.BookInput, error) {
	quantity, err := services.ParseInt("quantity", f.Quantity, services.DefaultQuantity)
	if err != nil {
		return services.BookInput{}, err
	}
	return services.BookInput{
		Title:       f.Title,
		Author:      f.Author,
		ISBN:        f.ISBN,
		Category:    f.Category,
		Quantity:    quantity,
		Description: f.Description,
	}, nil
}

type BooksController struct {
	pages
	catalog BookCatalog
	tasks   TaskEnqueuer
}

func NewBooksController(p pages, catalog BookCatalog, tasks TaskEnqueuer) *BooksController {
	return &BooksController{pages: p, catalog: catalog, tasks: tasks}
}

// List renders all books, or those matching ?search=.
// GET /books
func (bc *BooksController) List(c *gin.Context) {
	query := c.Query("search")
	books, err := bc.catalog.ListBooks(c.Request.Context(), query)
	if err != nil {
		bc.internalError(c, err, "list books")
		return
	}

	bc.render(c, http.StatusOK, "books", gin.H{
		"Title":       "Books",
		"Books":       books,
		"SearchQuery": query,
	})
}

// GET /books/add
func (bc *BooksController) AddForm(c *gin.Context) {
	bc.render(c, http.StatusOK, "add_book", gin.H{
		"Title": "Add book",
		"Form":  bookForm{Quantity: strconv.Itoa(services.DefaultQuantity)},
	})
}

// Add creates a book and queues a description lookup when none was given.
// POST /books/add
func (bc *BooksController) Add(c *gin.Context) {
	var form bookForm
	_ = c.ShouldBind(&form)

	in, err := form.input()
	var book *entities.Book
	if err == nil {
		book, err = bc.catalog.CreateBook(c.Request.Context(), in)
	}
	if err != nil {
		if services.IsValidation(err) {
			bc.render(c, http.StatusBadRequest, "add_book", gin.H{"Title": "Add book", "Form": form}, errorNotice(err))
			return
		}
		bc.internalError(c, err, "create book")
		return
	}

	bc.enqueueEnrichment(book)
	bc.redirect(c, "/books", session.FlashSuccess, "Book added successfully!")
}

// GET /books/edit/:id
func (bc *BooksController) EditForm(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		bc.bookError(c, err, "get book")
		return
	}

	bc.render(c, http.StatusOK, "edit_book", gin.H{
		"Title": "Edit " + book.Title,
		"Book":  book,
		"Form":  bookFormFrom(book),
	})
}

// POST /books/edit/:id
func (bc *BooksController) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var form bookForm
	_ = c.ShouldBind(&form)

	in, err := form.input()
	if err == nil {
		_, err = bc.catalog.UpdateBook(c.Request.Context(), id, in)
	}
	if err != nil {
		if !services.IsValidation(err) {
			bc.bookError(c, err, "update book")
			return
		}
		book, getErr := bc.catalog.GetBook(c.Request.Context(), id)
		if getErr != nil {
			bc.bookError(c, getErr, "get book")
			return
		}
		bc.render(c, http.StatusBadRequest, "edit_book", gin.H{
			"Title": "Edit " + book.Title,
			"Book":  book,
			"Form":  form,
		}, errorNotice(err))
		return
	}

	bc.redirect(c, "/books", session.FlashSuccess, "Book updated successfully!")
}

// Delete removes a book that has no copies on loan.
// POST /books/delete/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := bc.catalog.DeleteBook(c.Request.Context(), id); err != nil {
		if services.IsPrecondition(err) {
			bc.redirect(c, "/books", session.FlashError, err.Error())
			return
		}
		bc.bookError(c, err, "delete book")
		return
	}

	bc.redirect(c, "/books", session.FlashSuccess, "Book deleted successfully!")
}

func (bc *BooksController) bookError(c *gin.Context, err error, context string) {
	if services.IsNotFound(err) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	bc.internalError(c, err, context)
}

func (bc *BooksController) enqueueEnrichment(book *entities.Book) {
	if bc.tasks == nil || book.Description != "" {
		return
	}
	if _, err := bc.tasks.Enqueue(tasks.EnrichBookTask{BookID: book.ID}); err != nil {
		log.Printf("Failed to queue enrichment for book %d: %v", book.ID, err)
	}
}
