package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/db/dbtest"
	"github.com/Skotchmaster/bookstore/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	return &GormRepo{DB: dbtest.Open(t)}
}

func createBook(t *testing.T, r *GormRepo, stock int) *models.Book {
	t.Helper()
	b := &models.Book{Title: "Book", Author: "Author", Price: 10, Stock: stock}
	require.NoError(t, r.CreateBook(context.Background(), b))
	return b
}

func TestDecrementStock(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	b := createBook(t, r, 3)

	require.NoError(t, r.DecrementStock(ctx, b.ID, 2))
	assert.ErrorIs(t, r.DecrementStock(ctx, b.ID, 2), ErrInsufficientStock)
	require.NoError(t, r.DecrementStock(ctx, b.ID, 1))
	assert.ErrorIs(t, r.DecrementStock(ctx, uuid.New(), 1), ErrInsufficientStock)

	got, err := r.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestCartItemLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	b := createBook(t, r, 2)

	inserted, err := r.InsertCartItem(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = r.InsertCartItem(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	item, err := r.IncreaseCartItem(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	item, err = r.IncreaseCartItem(ctx, userID, b.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, item.Quantity)

	item, err = r.DecreaseCartItem(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	item, err = r.DecreaseCartItem(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, item)

	_, err = r.DecreaseCartItem(ctx, userID, b.ID)
	assert.ErrorIs(t, err, ErrNotInCart)
	assert.ErrorIs(t, r.RemoveCartItem(ctx, userID, b.ID), ErrNotInCart)

	cart, err := r.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}

func TestClearCartItemsOnlyTouchesGivenLines(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID, other := uuid.New(), uuid.New()
	a, b := createBook(t, r, 5), createBook(t, r, 5)

	for _, pair := range [][2]uuid.UUID{{userID, a.ID}, {userID, b.ID}, {other, a.ID}} {
		_, err := r.InsertCartItem(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	cart, err := r.LockCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart, 2)

	require.NoError(t, r.ClearCartItems(ctx, userID, cart[:1]))
	cart, err = r.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, b.ID, cart[0].BookID)

	cart, err = r.GetCart(ctx, other)
	require.NoError(t, err)
	assert.Len(t, cart, 1)
}

func TestClearCartItemsRejectsChangedLines(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	a, b := createBook(t, r, 5), createBook(t, r, 5)
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		_, err := r.InsertCartItem(ctx, userID, id)
		require.NoError(t, err)
	}

	cart, err := r.GetCart(ctx, userID)
	require.NoError(t, err)
	_, err = r.IncreaseCartItem(ctx, userID, cart[1].BookID)
	require.NoError(t, err)

	err = r.Transaction(ctx, func(tx *GormRepo) error {
		return tx.ClearCartItems(ctx, userID, cart)
	})
	assert.ErrorIs(t, err, ErrCartChanged)

	after, err := r.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, 2, after[1].Quantity)

	require.NoError(t, r.RemoveCartItem(ctx, userID, cart[0].BookID))
	assert.ErrorIs(t, r.ClearCartItems(ctx, userID, cart[:1]), ErrCartChanged)
}

func TestTransactionRollsBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	b := createBook(t, r, 3)

	err := r.Transaction(ctx, func(tx *GormRepo) error {
		require.NoError(t, tx.DecrementStock(ctx, b.ID, 3))
		return tx.DecrementStock(ctx, b.ID, 1)
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := r.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestCreateUserIfNotExists(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	u := &models.User{Email: "reader@example.com", Name: "Reader", PasswordHash: "x"}
	require.NoError(t, r.CreateUserIfNotExists(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	dup := &models.User{Email: "reader@example.com", Name: "Other", PasswordHash: "y"}
	assert.ErrorIs(t, r.CreateUserIfNotExists(ctx, dup), ErrUserAlreadyExist)
}

func TestSearchBooks(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for _, title := range []string{"Go in Action", "The Go Programming Language", "Rust"} {
		require.NoError(t, r.CreateBook(ctx, &models.Book{Title: title, Author: "Someone", Price: 1}))
	}

	total, ids, err := r.SearchBooks(ctx, "GO", 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, ids, 1)
}

func TestSearchBooksTreatsWildcardsLiterally(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for _, title := range []string{"100% Go", "Go_Lang", "Golang", `C:\Books`} {
		require.NoError(t, r.CreateBook(ctx, &models.Book{Title: title, Author: "Someone", Price: 1}))
	}

	tests := []struct {
		q     string
		total int64
	}{
		{q: "%", total: 1},
		{q: "_", total: 1},
		{q: "go_", total: 1},
		{q: `\`, total: 1},
		{q: "go", total: 3},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			total, ids, err := r.SearchBooks(ctx, tt.q, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Len(t, ids, int(tt.total))
		})
	}
}
