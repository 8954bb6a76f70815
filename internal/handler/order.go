package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/model"
	"order-reconciliation/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
	paginator    Paginator
}

func NewOrderHandler(orderService service.OrderService, paginator Paginator) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		paginator:    paginator,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	var req dto.CreateOrderRequest
	if err := dto.Decode(dto.CreateOrderSchema, body, &req); err != nil {
		return &service.Error{Kind: service.ErrInvalidInput, Message: err.Error()}
	}

	resp, err := h.orderService.CreateOrder(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) UpdateShipmentStatus(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	var req dto.ShipmentStatusRequest
	if err := dto.Decode(dto.ShipmentStatusSchema, body, &req); err != nil {
		return &service.Error{Kind: service.ErrInvalidInput, Message: err.Error()}
	}

	order, err := h.orderService.UpdateShipmentStatus(ctx, &req)
	if errors.Is(err, service.ErrConflict) {
		return c.JSON(http.StatusBadRequest, dto.ResultResponse{
			Message: "duplicate error",
			Error:   service.Message(err),
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ResultResponse{
		Message: "success",
		Result:  order,
	})
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := h.paginator.Parse(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListOrders(ctx, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) TrackOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("orderId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListBuyerOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListBuyerOrders(ctx, c.QueryParam("email"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) SearchOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.SearchOrders(ctx, c.QueryParam("search"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ListClients(c echo.Context) error {
	ctx := c.Request().Context()

	clients, err := h.orderService.ListClients(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ClientsResponse[dto.ClientSummary]{
		Message: "success",
		Clients: clients,
	})
}

func (h *OrderHandler) ListPurchasedItems(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.orderService.ListPurchasedItems(ctx, c.QueryParam("email"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ClientsResponse[model.LineItem]{
		Message: "success",
		Clients: items,
	})
}

func (h *OrderHandler) SearchOrderProducts(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.orderService.SearchOrderProducts(ctx, c.QueryParam("id"), c.QueryParam("search"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}
