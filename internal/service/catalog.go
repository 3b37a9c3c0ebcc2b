package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
)

const reindexBatchSize = 200

type CatalogService struct {
	Repo     *repo.GormRepo
	Searcher search.Searcher
	Indexer  search.Indexer
}

func (s *CatalogService) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.Repo.GetBook(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// SearchBooks returns one page of matches in the searcher's order. Hits for
// books deleted since they were indexed are dropped.
func (s *CatalogService) SearchBooks(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Book{}, nil
	}

	total, ids, err := s.Searcher.Search(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("search books: %w", err)
	}
	found, err := s.Repo.GetBooks(ctx, ids)
	if err != nil {
		return 0, nil, fmt.Errorf("load books: %w", err)
	}

	books := make([]models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := found[id]; ok {
			books = append(books, b)
		}
	}
	return total, books, nil
}

// Reindex pushes the whole catalog to the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Indexer == nil {
		return 0, nil
	}
	count := 0
	err := s.Repo.EachBookBatch(ctx, reindexBatchSize, func(books []models.Book) error {
		if err := s.Indexer.IndexBooks(ctx, books...); err != nil {
			return err
		}
		count += len(books)
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("reindex: %w", err)
	}
	logging.FromContext(ctx).Info("reindex_success", "books", count)
	return count, nil
}
