package services

import (
	"context"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

type SearchResults struct {
	Query   string            `json:"query"`
	Books   []entities.Book   `json:"books"`
	Members []entities.Member `json:"members"`
}

// SearchService looks up books and members with one query.
type SearchService struct {
	db *database.Database
}

func NewSearchService(db *database.Database) *SearchService {
	return &SearchService{db: db}
}

// Search runs the book and member searches independently. Unlike the
// per-entity listings, an empty query matches nothing.
func (s *SearchService) Search(ctx context.Context, query string) (*SearchResults, error) {
	results := &SearchResults{
		Query:   query,
		Books:   []entities.Book{},
		Members: []entities.Member{},
	}
	if query == "" {
		return results, nil
	}

	repos := s.db.Repositories(ctx)

	books, err := repos.Books.Search(query)
	if err != nil {
		return nil, err
	}
	members, err := repos.Members.Search(query)
	if err != nil {
		return nil, err
	}

	results.Books = books
	results.Members = members
	return results, nil
}
