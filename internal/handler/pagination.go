package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"order-reconciliation/internal/config"
	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/service"
)

// maxPage keeps the row offset far from integer overflow.
const maxPage = 100000

type Paginator struct {
	defaultLimit int
	maxLimit     int
}

func NewPaginator(cfg config.Pagination) Paginator {
	return Paginator{
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// Parse reads page and limit from the query string. Pages and limits above their
// maximum are clamped.
func (p Paginator) Parse(c echo.Context) (dto.PageRequest, error) {
	page := dto.PageRequest{Page: 1, Limit: p.defaultLimit}

	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, &service.Error{Kind: service.ErrInvalidInput, Message: "page must be a positive integer"}
		}
		page.Page = min(n, maxPage)
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, &service.Error{Kind: service.ErrInvalidInput, Message: "limit must be a positive integer"}
		}
		page.Limit = n
	}
	if p.maxLimit > 0 && page.Limit > p.maxLimit {
		page.Limit = p.maxLimit
	}

	return page, nil
}
