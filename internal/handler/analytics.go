package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"order-reconciliation/internal/service"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

func (h *AnalyticsHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.analyticsService.Summary(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
