package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"order-reconciliation/internal/config"
	"order-reconciliation/internal/dto"
)

const limiterExpiry = 3 * time.Minute

// WebhookRateLimit throttles deliveries per client IP. Rejected calls get the
// webhook response shape so the sender retries later.
func WebhookRateLimit(cfg config.Webhook) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RateLimit),
		Burst:     cfg.RateBurst,
		ExpiresIn: limiterExpiry,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, dto.WebhookResponse{Success: false, Message: "Unidentified client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, dto.WebhookResponse{Success: false, Message: "Too many requests"})
		},
	})
}
