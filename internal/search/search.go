package search

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type Searcher interface {
	Search(ctx context.Context, q string, from, size int) (int64, []uuid.UUID, error)
}

type Indexer interface {
	IndexBooks(ctx context.Context, books ...models.Book) error
}

type bookSearcher interface {
	SearchBooks(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error)
}

// DBSearcher falls back to plain substring matching in the database.
type DBSearcher struct {
	Repo bookSearcher
}

func (s *DBSearcher) Search(ctx context.Context, q string, from, size int) (int64, []uuid.UUID, error) {
	return s.Repo.SearchBooks(ctx, q, from, size)
}

type NopIndexer struct{}

func (NopIndexer) IndexBooks(context.Context, ...models.Book) error { return nil }
