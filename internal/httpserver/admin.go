package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/util"
)

type AdminHTTP struct {
	Orders  *service.OrderService
	Catalog *service.CatalogService
	Auth    *service.AuthService
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Orders.ListOrders(ctx, offset, limit)
	if err != nil {
		return httpError(l, "list_orders", err, "cannot get orders")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": orders,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *AdminHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_user")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	user, err := h.Auth.Profile(ctx, id)
	if err != nil {
		return httpError(l, "get_user", err, "cannot get user")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": transport.NewUser(user)})
}

func (h *AdminHTTP) Reindex(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reindex")

	n, err := h.Catalog.Reindex(ctx)
	if err != nil {
		return httpError(l, "reindex", err, "reindex failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"indexed": n})
}
