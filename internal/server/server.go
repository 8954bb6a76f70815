package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"order-reconciliation/internal/config"
	"order-reconciliation/internal/handler"
	"order-reconciliation/internal/middleware"
	"order-reconciliation/internal/service"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Payment      service.PaymentService
	Order        service.OrderService
	Cancellation service.CancellationService
	Analytics    service.AnalyticsService
}

type Server struct {
	echo                *echo.Echo
	cfg                 *config.Config
	paymentHandler      *handler.PaymentHandler
	orderHandler        *handler.OrderHandler
	cancellationHandler *handler.CancellationHandler
	analyticsHandler    *handler.AnalyticsHandler
}

func NewServer(cfg *config.Config, log *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.RequestID())
	e.Use(middleware.ContextLogger(log))
	e.Use(middleware.AccessLog(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	paginator := handler.NewPaginator(cfg.Pagination)

	s := &Server{
		echo:                e,
		cfg:                 cfg,
		paymentHandler:      handler.NewPaymentHandler(services.Payment),
		orderHandler:        handler.NewOrderHandler(services.Order, paginator),
		cancellationHandler: handler.NewCancellationHandler(services.Cancellation, paginator),
		analyticsHandler:    handler.NewAnalyticsHandler(services.Analytics),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/preorder", s.paymentHandler.CreatePreorder)
	payments.GET("/status", s.paymentHandler.GetStatus)
	payments.POST("/webhook", s.paymentHandler.Webhook, middleware.WebhookRateLimit(s.cfg.Webhook))

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("/create", s.orderHandler.CreateOrder)
	orders.GET("", s.orderHandler.ListOrders)
	orders.GET("/search", s.orderHandler.SearchOrders)
	orders.GET("/client", s.orderHandler.ListBuyerOrders)
	orders.GET("/client/purchases", s.orderHandler.ListPurchasedItems)
	orders.GET("/clients", s.orderHandler.ListClients)
	orders.GET("/products/search", s.orderHandler.SearchOrderProducts)
	orders.GET("/track/:orderId", s.orderHandler.TrackOrder)
	orders.POST("/shipment-status", s.orderHandler.UpdateShipmentStatus)

	// -------- cancellations --------
	cancel := orders.Group("/cancel")
	cancel.POST("", s.cancellationHandler.RequestCancellation)
	cancel.GET("/pending", s.cancellationHandler.ListPending)
	cancel.GET("/approved", s.cancellationHandler.ListApproved)
	cancel.GET("/search", s.cancellationHandler.Search)
	cancel.GET("/user", s.cancellationHandler.ListByBuyer)
	cancel.POST("/:id/approve", s.cancellationHandler.ApproveCancellation)

	// -------- analytics --------
	api.GET("/analytics/summary", s.analyticsHandler.Summary)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
