package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Category struct {
	ID        uuid.UUID `gorm:"primaryKey"      json:"id"`
	Name      string    `gorm:"not null;index"  json:"name"`
	CreatedAt time.Time `                       json:"created_at"`
}

// Book references its category weakly: deleting a category leaves the
// reference dangling and reads resolve it to no category.
type Book struct {
	ID              uuid.UUID  `gorm:"primaryKey"                                           json:"id"`
	Title           string     `gorm:"not null"                                             json:"title"`
	Author          string     `gorm:"not null"                                             json:"author"`
	Description     string     `                                                            json:"description"`
	Price           float64    `gorm:"not null;check:price >= 0"                            json:"price"`
	Stock           int        `gorm:"not null;default:0;check:stock >= 0"                  json:"stock"`
	CategoryID      *uuid.UUID `gorm:"index"                                                json:"category_id,omitempty"`
	Category        *Category  `gorm:"foreignKey:CategoryID"                                json:"category,omitempty"`
	CoverImage      string     `                                                            json:"cover_image,omitempty"`
	IsFeatured      bool       `gorm:"default:false"                                        json:"is_featured"`
	IsOnSale        bool       `gorm:"default:false"                                        json:"is_on_sale"`
	DiscountPercent int        `gorm:"default:0;check:discount_percent BETWEEN 0 AND 100"   json:"discount_percent"`
	CreatedAt       time.Time  `                                                            json:"created_at"`
	UpdatedAt       time.Time  `                                                            json:"updated_at"`
}

type User struct {
	ID           uuid.UUID  `gorm:"primaryKey"           json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"not null"             json:"name"`
	PasswordHash string     `gorm:"not null"             json:"-"`
	Role         string     `gorm:"not null;default:user" json:"role"`
	Cart         []CartItem `gorm:"foreignKey:UserID"    json:"cart"`
	CreatedAt    time.Time  `                            json:"created_at"`
}

// CartItem is one cart line. The unique (user_id, book_id) index keeps a
// book from appearing twice in a cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                              json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_user_book;not null"      json:"user_id"`
	BookID    uuid.UUID `gorm:"uniqueIndex:idx_user_book;not null"      json:"book_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"   json:"quantity"`
	CreatedAt time.Time `                                               json:"-"`
}

type Order struct {
	ID          uuid.UUID   `gorm:"primaryKey"          json:"id"`
	UserID      uuid.UUID   `gorm:"index;not null"      json:"user_id"`
	Items       []OrderItem `gorm:"foreignKey:OrderID"  json:"items"`
	TotalAmount float64     `gorm:"not null"            json:"total_amount"`
	Location    string      `gorm:"not null"            json:"location"`
	PhoneNumber string      `gorm:"not null"            json:"phone_number"`
	CreatedAt   time.Time   `gorm:"index"               json:"created_at"`
}

// OrderItem keeps the price the book had at checkout.
type OrderItem struct {
	ID       uuid.UUID `gorm:"primaryKey"                 json:"id"`
	OrderID  uuid.UUID `gorm:"index;not null"             json:"order_id"`
	BookID   uuid.UUID `gorm:"not null"                   json:"book_id"`
	Quantity int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price    float64   `gorm:"not null"                   json:"price"`
}

// RevokedToken is a logged-out session token, kept until it would have
// expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey"     json:"jti"`
	UserID    uuid.UUID `gorm:"index;not null" json:"user_id"`
	ExpiresAt int64     `gorm:"index;not null" json:"expires_at"`
}

func All() []any {
	return []any{
		&Category{},
		&Book{},
		&User{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&RevokedToken{},
	}
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (c *Category) BeforeCreate(tx *gorm.DB) error  { newID(&c.ID); return nil }
func (b *Book) BeforeCreate(tx *gorm.DB) error      { newID(&b.ID); return nil }
func (u *User) BeforeCreate(tx *gorm.DB) error      { newID(&u.ID); return nil }
func (c *CartItem) BeforeCreate(tx *gorm.DB) error  { newID(&c.ID); return nil }
func (o *Order) BeforeCreate(tx *gorm.DB) error     { newID(&o.ID); return nil }
func (o *OrderItem) BeforeCreate(tx *gorm.DB) error { newID(&o.ID); return nil }

func (CartItem) TableName() string {
	return "cart_items"
}
