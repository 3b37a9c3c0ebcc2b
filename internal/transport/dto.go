package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AddToCartRequest struct {
	BookID string `json:"bookId"`
}

type UpdateCartRequest struct {
	BookID string `json:"bookId"`
	Action string `json:"action"`
}

type CheckoutRequest struct {
	Location    string `json:"location"`
	PhoneNumber string `json:"phoneNumber"`
}

type CartLine struct {
	BookID   uuid.UUID `json:"bookId"`
	Quantity int       `json:"quantity"`
}

type UserResponse struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  string     `json:"role"`
	Cart  []CartLine `json:"cart"`
}

func NewCart(items []models.CartItem) []CartLine {
	out := make([]CartLine, 0, len(items))
	for _, it := range items {
		out = append(out, CartLine{BookID: it.BookID, Quantity: it.Quantity})
	}
	return out
}

func NewUser(u *models.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		Cart:  NewCart(u.Cart),
	}
}
