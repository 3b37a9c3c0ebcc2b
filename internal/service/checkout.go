package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
)

type CheckoutService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Indexer search.Indexer
}

// Checkout turns the user's cart into an order. Every line is checked
// against stock before anything is written, and the order, the stock
// decrements and the cart clear commit together or not at all.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, location, phone string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", userID)

	location = strings.TrimSpace(location)
	phone = strings.TrimSpace(phone)
	if location == "" || phone == "" {
		return nil, newError(ErrValidation, "Location and phone number are required")
	}

	var order *models.Order
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.LockCart(ctx, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(cart) == 0 {
			return newError(ErrValidation, "Cart is empty")
		}

		bookIDs := make([]uuid.UUID, 0, len(cart))
		for _, item := range cart {
			bookIDs = append(bookIDs, item.BookID)
		}
		books, err := tx.GetBooks(ctx, bookIDs)
		if err != nil {
			return fmt.Errorf("load books: %w", err)
		}

		o, err := priceCart(cart, books)
		if err != nil {
			return err
		}
		o.UserID = userID
		o.Location = location
		o.PhoneNumber = phone

		if err := tx.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, item := range o.Items {
			if err := tx.DecrementStock(ctx, item.BookID, item.Quantity); err != nil {
				if errors.Is(err, repo.ErrInsufficientStock) {
					b := books[item.BookID]
					available := b.Stock
					if fresh, ferr := tx.GetBook(ctx, b.ID); ferr == nil {
						available = fresh.Stock
					}
					return &CapacityError{Title: b.Title, Available: available}
				}
				return fmt.Errorf("decrement stock: %w", err)
			}
		}
		if err := tx.ClearCartItems(ctx, userID, cart); err != nil {
			if errors.Is(err, repo.ErrCartChanged) {
				return newError(ErrConflict, "Cart changed during checkout. Please try again.")
			}
			return fmt.Errorf("clear cart: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			l.Error("checkout_error", "status", 500, "error", err)
		}
		return nil, err
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.TotalAmount)
	s.afterCommit(ctx, order)
	return order, nil
}

// priceCart validates every cart line against its book and builds the
// order lines at current prices. Nothing is written here.
func priceCart(cart []models.CartItem, books map[uuid.UUID]models.Book) (*models.Order, error) {
	for _, item := range cart {
		if _, ok := books[item.BookID]; !ok {
			return nil, newError(ErrNotFound, "One or more books not found")
		}
	}

	order := &models.Order{Items: make([]models.OrderItem, 0, len(cart))}
	for _, item := range cart {
		book := books[item.BookID]
		if item.Quantity > book.Stock {
			return nil, &CapacityError{Title: book.Title, Available: book.Stock}
		}
		order.Items = append(order.Items, models.OrderItem{
			BookID:   book.ID,
			Quantity: item.Quantity,
			Price:    book.Price,
		})
		order.TotalAmount += book.Price * float64(item.Quantity)
	}
	return order, nil
}

func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order) {
	items := make([]map[string]any, 0, len(order.Items))
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, map[string]any{
			"book_id":  it.BookID.String(),
			"quantity": it.Quantity,
			"price":    it.Price,
		})
		ids = append(ids, it.BookID)
	}
	events.Publish(ctx, s.Events, events.TopicOrder, order.UserID.String(), map[string]any{
		"type":         "order_created",
		"order_id":     order.ID.String(),
		"user_id":      order.UserID.String(),
		"total_amount": order.TotalAmount,
		"items":        items,
	})

	if s.Indexer == nil {
		return
	}
	books, err := s.Repo.GetBooks(ctx, ids)
	if err == nil {
		list := make([]models.Book, 0, len(books))
		for _, b := range books {
			list = append(list, b)
		}
		err = s.Indexer.IndexBooks(ctx, list...)
	}
	if err != nil {
		logging.FromContext(ctx).Warn("checkout_reindex_error", "order_id", order.ID, "error", err)
	}
}

func isDomainError(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrCapacity, ErrUnauthorized, ErrForbidden, ErrConflict} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
