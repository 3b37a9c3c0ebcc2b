package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
)

type Deps struct {
	Users     *UsersHTTP
	Books     *BooksHTTP
	Admin     *AdminHTTP
	Auth      *auth.Middleware
	Ready     func(ctx context.Context) error
	ImagesDir string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("ready_error", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	if d.ImagesDir != "" {
		e.Static("/images", d.ImagesDir)
	}

	users := e.Group("/users")
	users.POST("/register", d.Users.Register)
	users.POST("/signin", d.Users.SignIn)
	users.POST("/logout", d.Users.Logout)

	users.GET("/verify", d.Users.Verify, d.Auth.RequireAuth)
	users.PUT("/add-to-cart", d.Users.AddToCart, d.Auth.RequireAuth)
	users.PUT("/update-cart", d.Users.UpdateCart, d.Auth.RequireAuth)
	users.POST("/checkout", d.Users.Checkout, d.Auth.RequireAuth)
	users.GET("/orders", d.Users.ListOrders, d.Auth.RequireAuth)

	books := e.Group("/books")
	books.GET("/search", d.Books.Search)
	books.GET("/:id", d.Books.GetBook)

	admin := e.Group("/admin", d.Auth.RequireAdmin)
	admin.GET("/orders", d.Admin.ListOrders)
	admin.GET("/users/:id", d.Admin.GetUser)
	admin.POST("/reindex", d.Admin.Reindex)
}
