package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/util"
)

type BooksHTTP struct {
	Svc *service.CatalogService
}

func (h *BooksHTTP) GetBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "books.get_book")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_book_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	book, err := h.Svc.GetBook(ctx, id)
	if err != nil {
		return httpError(l, "get_book", err, "cannot get book")
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BooksHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "books.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, books, err := h.Svc.SearchBooks(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return httpError(l, "search", err, "search failed")
	}

	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"books": books,
		"meta":  util.NewMeta(page, offset, limit, total),
	})
}
