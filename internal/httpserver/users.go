package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

type UsersHTTP struct {
	Auth     *service.AuthService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Cookies  CookieConfig
}

func (h *UsersHTTP) setSession(c echo.Context, res *service.AuthResult) {
	c.SetCookie(h.Cookies.CreateCookie(tokens.CookieName, res.Token, "/", res.Claims.ExpiresAt.Time))
}

func (h *UsersHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Auth.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return httpError(l, "register", err, "Server Error")
	}

	h.setSession(c, res)
	l.Info("register_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered Successfully",
		"user":    transport.NewUser(res.User),
		"role":    res.User.Role,
	})
}

func (h *UsersHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.signin")

	var req transport.SignInRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(l, "signin", err, "Server Error")
	}

	h.setSession(c, res)
	l.Info("signin_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "User signed in Successfully",
		"user":     transport.NewUser(res.User),
		"role":     res.User.Role,
		"redirect": res.Redirect(),
	})
}

func (h *UsersHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.logout")

	if cookie, err := c.Cookie(tokens.CookieName); err == nil {
		if err := h.Auth.Logout(ctx, cookie.Value); err != nil {
			l.Error("logout_error", "status", 500, "reason", "cannot revoke token", "error", err)
		}
	}

	c.SetCookie(h.Cookies.DeleteCookie(tokens.CookieName, "/"))
	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *UsersHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.verify")

	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := h.Auth.Profile(ctx, userID)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			l.Warn("verify_error", "status", 401, "reason", "user is not found")
			return echo.NewHTTPError(http.StatusUnauthorized, "User is not found")
		}
		return httpError(l, "verify", err, "Invalid Token")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "token valid",
		"user":    transport.NewUser(user),
	})
}

func parseBookID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "bookId is required")
	}
	return id, nil
}

func (h *UsersHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.add_to_cart")

	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	bookID, err := parseBookID(req.BookID)
	if err != nil {
		return err
	}

	if err := h.Cart.AddToCart(ctx, userID, bookID); err != nil {
		return httpError(l, "add_to_cart", err, "internal server error")
	}

	l.Info("add_to_cart_success", "book_id", bookID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Book added to cart"})
}

func (h *UsersHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_cart")

	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.UpdateCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	bookID, err := parseBookID(req.BookID)
	if err != nil {
		return err
	}

	cart, err := h.Cart.UpdateCart(ctx, userID, bookID, req.Action)
	if err != nil {
		return httpError(l, "update_cart", err, "internal server error")
	}

	l.Info("update_cart_success", "book_id", bookID, "action", req.Action)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Cart updated",
		"cart":    transport.NewCart(cart),
	})
}

func (h *UsersHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.checkout")

	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Checkout.Checkout(ctx, userID, req.Location, req.PhoneNumber)
	if err != nil {
		return httpError(l, "checkout", err, "Checkout failed. Please try again.")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Order placed successfully",
		"orderId": order.ID,
	})
}

func (h *UsersHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.orders")

	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := h.Orders.ListUserOrders(ctx, userID)
	if err != nil {
		return httpError(l, "list_orders", err, "cannot get orders")
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}
