package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/service"
)

type CancellationHandler struct {
	cancellationService service.CancellationService
	paginator           Paginator
}

func NewCancellationHandler(cancellationService service.CancellationService, paginator Paginator) *CancellationHandler {
	return &CancellationHandler{
		cancellationService: cancellationService,
		paginator:           paginator,
	}
}

func (h *CancellationHandler) RequestCancellation(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	var req dto.CancelOrderRequest
	if err := dto.Decode(dto.CancelOrderSchema, body, &req); err != nil {
		return &service.Error{Kind: service.ErrInvalidInput, Message: err.Error()}
	}

	cancelOrder, err := h.cancellationService.RequestCancellation(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ResultResponse{
		Message: "Cancel request created",
		Result:  cancelOrder,
	})
}

func (h *CancellationHandler) ApproveCancellation(c echo.Context) error {
	ctx := c.Request().Context()

	cancelOrder, err := h.cancellationService.ApproveCancellation(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ResultResponse{
		Message: "Cancellation approved",
		Result:  cancelOrder,
	})
}

func (h *CancellationHandler) ListPending(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.paginator.Parse(c)
	if err != nil {
		return err
	}

	result, err := h.cancellationService.ListPending(ctx, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CancellationHandler) ListApproved(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.paginator.Parse(c)
	if err != nil {
		return err
	}

	result, err := h.cancellationService.ListApproved(ctx, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CancellationHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.paginator.Parse(c)
	if err != nil {
		return err
	}

	result, err := h.cancellationService.Search(ctx, c.QueryParam("status"), c.QueryParam("search"), page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CancellationHandler) ListByBuyer(c echo.Context) error {
	ctx := c.Request().Context()

	cancelOrders, err := h.cancellationService.ListByBuyer(ctx, c.QueryParam("email"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cancelOrders)
}
