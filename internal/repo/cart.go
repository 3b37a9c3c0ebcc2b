package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items := []models.CartItem{}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LockCart reads the user's cart and holds its rows until the surrounding
// transaction ends. Only meaningful inside Transaction.
func (r *GormRepo) LockCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items := []models.CartItem{}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// InsertCartItem adds a quantity-1 line. It reports false, without error,
// when the book is already in the cart.
func (r *GormRepo) InsertCartItem(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	item := models.CartItem{UserID: userID, BookID: bookID, Quantity: 1}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoNothing: true,
		}).
		Create(&item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IncreaseCartItem bumps the line by one as long as the result still fits
// the book's current stock. The check and the write are one statement.
func (r *GormRepo) IncreaseCartItem(ctx context.Context, userID, bookID uuid.UUID) (*models.CartItem, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Where("quantity + 1 <= (SELECT stock FROM books WHERE books.id = ?)", bookID).
		Update("quantity", gorm.Expr("quantity + 1"))
	if res.Error != nil {
		return nil, res.Error
	}

	item, err := r.getCartItem(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return item, ErrInsufficientStock
	}
	return item, nil
}

// DecreaseCartItem takes one off the line and drops the line once it would
// reach zero. The returned item is nil when the line was removed.
func (r *GormRepo) DecreaseCartItem(ctx context.Context, userID, bookID uuid.UUID) (*models.CartItem, error) {
	var item *models.CartItem
	err := r.Transaction(ctx, func(tx *GormRepo) error {
		res := tx.DB.WithContext(ctx).
			Model(&models.CartItem{}).
			Where("user_id = ? AND book_id = ? AND quantity > 1", userID, bookID).
			Update("quantity", gorm.Expr("quantity - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			got, err := tx.getCartItem(ctx, userID, bookID)
			item = got
			return err
		}

		del := tx.DB.WithContext(ctx).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Delete(&models.CartItem{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return ErrNotInCart
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, bookID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotInCart
	}
	return nil
}

// ClearCartItems deletes exactly the given lines. A line that is gone or
// whose quantity moved since it was read yields ErrCartChanged; run it in a
// transaction so a partial clear rolls back.
func (r *GormRepo) ClearCartItems(ctx context.Context, userID uuid.UUID, items []models.CartItem) error {
	for _, item := range items {
		res := r.DB.WithContext(ctx).
			Where("user_id = ? AND book_id = ? AND quantity = ?", userID, item.BookID, item.Quantity).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrCartChanged
		}
	}
	return nil
}

func (r *GormRepo) getCartItem(ctx context.Context, userID, bookID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotInCart
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
