package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
)

const (
	ActionAdd      = "add"
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
	ActionRemove   = "remove"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) AddToCart(ctx context.Context, userID, bookID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "cart.add", "book_id", bookID)

	if bookID == uuid.Nil {
		return newError(ErrValidation, "bookId is required")
	}
	book, err := s.findBook(ctx, bookID)
	if err != nil {
		return err
	}
	if book.Stock <= 0 {
		return newError(ErrCapacity, "Book is out of stock")
	}

	inserted, err := s.Repo.InsertCartItem(ctx, userID, bookID)
	if err != nil {
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return fmt.Errorf("insert cart item: %w", err)
	}
	if !inserted {
		return s.increase(ctx, userID, book)
	}

	s.publish(ctx, userID, "cart_item_added", bookID, 1)
	return nil
}

// UpdateCart applies action to the user's line for bookID and returns the
// resulting cart.
func (s *CartService) UpdateCart(ctx context.Context, userID, bookID uuid.UUID, action string) ([]models.CartItem, error) {
	if bookID == uuid.Nil {
		return nil, newError(ErrValidation, "bookId is required")
	}

	switch action {
	case ActionAdd:
		if err := s.AddToCart(ctx, userID, bookID); err != nil {
			return nil, err
		}
	case ActionIncrease:
		book, err := s.findBook(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if err := s.increase(ctx, userID, book); err != nil {
			return nil, err
		}
	case ActionDecrease:
		item, err := s.Repo.DecreaseCartItem(ctx, userID, bookID)
		if err != nil {
			return nil, s.cartError(err)
		}
		if item == nil {
			s.publish(ctx, userID, "cart_item_removed", bookID, 0)
		} else {
			s.publish(ctx, userID, "cart_item_decreased", bookID, item.Quantity)
		}
	case ActionRemove:
		if err := s.Repo.RemoveCartItem(ctx, userID, bookID); err != nil {
			return nil, s.cartError(err)
		}
		s.publish(ctx, userID, "cart_item_removed", bookID, 0)
	default:
		return nil, newError(ErrValidation, fmt.Sprintf("unknown action %q", action))
	}

	return s.Repo.GetCart(ctx, userID)
}

func (s *CartService) increase(ctx context.Context, userID uuid.UUID, book *models.Book) error {
	item, err := s.Repo.IncreaseCartItem(ctx, userID, book.ID)
	if errors.Is(err, repo.ErrInsufficientStock) {
		available := book.Stock
		if fresh, ferr := s.Repo.GetBook(ctx, book.ID); ferr == nil {
			available = fresh.Stock
		}
		return &CapacityError{Available: available}
	}
	if err != nil {
		return s.cartError(err)
	}

	s.publish(ctx, userID, "cart_item_increased", book.ID, item.Quantity)
	return nil
}

func (s *CartService) findBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	book, err := s.Repo.GetBook(ctx, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Book not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

func (s *CartService) cartError(err error) error {
	if errors.Is(err, repo.ErrNotInCart) {
		return newError(ErrNotFound, "Item not found in cart")
	}
	return fmt.Errorf("update cart: %w", err)
}

func (s *CartService) publish(ctx context.Context, userID uuid.UUID, typ string, bookID uuid.UUID, qty int) {
	events.Publish(ctx, s.Events, events.TopicCart, userID.String(), map[string]any{
		"type":     typ,
		"user_id":  userID.String(),
		"book_id":  bookID.String(),
		"quantity": qty,
	})
}
