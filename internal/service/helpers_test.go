package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/db/dbtest"
	"github.com/Skotchmaster/bookstore/internal/events/eventstest"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/tokens"
)

type testEnv struct {
	repo     *repo.GormRepo
	events   *eventstest.Recorder
	indexer  *fakeIndexer
	cart     *CartService
	checkout *CheckoutService
	auth     *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := &repo.GormRepo{DB: dbtest.Open(t)}
	rec := &eventstest.Recorder{}
	idx := &fakeIndexer{}
	return &testEnv{
		repo:     r,
		events:   rec,
		indexer:  idx,
		cart:     &CartService{Repo: r, Events: rec},
		checkout: &CheckoutService{Repo: r, Events: rec, Indexer: idx},
		auth:     NewAuthService(r, tokens.NewIssuer([]byte("test-secret"), 4*7*24*time.Hour), rec),
	}
}

func (e *testEnv) book(t *testing.T, title string, price float64, stock int) *models.Book {
	t.Helper()
	b := &models.Book{Title: title, Author: "Author", Price: price, Stock: stock}
	require.NoError(t, e.repo.CreateBook(context.Background(), b))
	return b
}

func (e *testEnv) user(t *testing.T) uuid.UUID {
	t.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", Name: "Reader", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, e.repo.CreateUserIfNotExists(context.Background(), u))
	return u.ID
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	b, err := e.repo.GetBook(context.Background(), id)
	require.NoError(t, err)
	return b.Stock
}

func (e *testEnv) quantities(t *testing.T, userID uuid.UUID) map[uuid.UUID]int {
	t.Helper()
	items, err := e.repo.GetCart(context.Background(), userID)
	require.NoError(t, err)
	out := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		out[it.BookID] = it.Quantity
	}
	return out
}

// beforeWrite runs fn once, inside the caller's transaction, right before the
// first update or delete statement against table.
func (e *testEnv) beforeWrite(t *testing.T, op, table string, fn func(tx *gorm.DB) error) {
	t.Helper()

	name := "test:before_" + op + "_" + table
	var fired atomic.Bool
	hook := func(tx *gorm.DB) {
		if tx.Statement.Table != table || fired.Swap(true) {
			return
		}
		if err := fn(tx.Session(&gorm.Session{NewDB: true})); err != nil {
			_ = tx.AddError(err)
		}
	}

	cb := e.repo.DB.Callback()
	switch op {
	case "update":
		require.NoError(t, cb.Update().Before("gorm:update").Register(name, hook))
		t.Cleanup(func() { _ = cb.Update().Remove(name) })
	case "delete":
		require.NoError(t, cb.Delete().Before("gorm:delete").Register(name, hook))
		t.Cleanup(func() { _ = cb.Delete().Remove(name) })
	default:
		t.Fatalf("unknown op %q", op)
	}
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []models.Book
	err     error
}

func (f *fakeIndexer) IndexBooks(_ context.Context, books ...models.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, books...)
	return nil
}

func (f *fakeIndexer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.indexed)
}
