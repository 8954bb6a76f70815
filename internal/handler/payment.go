package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/logger"
	"order-reconciliation/internal/model"
	"order-reconciliation/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) CreatePreorder(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	var req dto.PreorderRequest
	if err := dto.Decode(dto.PreorderSchema, body, &req); err != nil {
		return &service.Error{Kind: service.ErrInvalidInput, Message: err.Error()}
	}

	if err := h.paymentService.CreatePreorder(ctx, &req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Preorder created",
	})
}

func (h *PaymentHandler) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	status, err := h.paymentService.GetStatus(ctx, c.QueryParam("code"))
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusNotFound, dto.PaymentStatusResponse{Status: dto.PaymentStatusNotFound})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, status)
}

// Webhook answers {"success": bool} in every case so the bank can decide whether to redeliver.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.WebhookResponse{Success: false, Message: "cannot read body"})
	}

	var event model.CassoWebhookEvent
	if err := dto.Decode(dto.WebhookSchema, body, &event); err != nil {
		logger.FromContext(ctx).Info("webhook payload rejected", zap.Error(err))
		return c.JSON(http.StatusBadRequest, dto.WebhookResponse{Success: false, Message: "Invalid payload"})
	}

	resp, err := h.paymentService.HandleWebhook(ctx, event.Data)
	if err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(ctx).Error("handle webhook", zap.Error(err))
		}
		return c.JSON(status, dto.WebhookResponse{Success: false, Message: messageOf(err, status)})
	}

	return c.JSON(http.StatusOK, resp)
}
