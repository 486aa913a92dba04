package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SearchController struct {
	pages
	searcher Searcher
}

func NewSearchController(p pages, searcher Searcher) *SearchController {
	return &SearchController{pages: p, searcher: searcher}
}

// Search looks up books and members at once. An empty query finds nothing.
// GET /search?q=
func (sc *SearchController) Search(c *gin.Context) {
	results, err := sc.searcher.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		sc.internalError(c, err, "search")
		return
	}

	sc.render(c, http.StatusOK, "search", gin.H{
		"Title":   "Search",
		"Query":   results.Query,
		"Books":   results.Books,
		"Members": results.Members,
	})
}
