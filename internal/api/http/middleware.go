package http

import (
	"context"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scoo-app/scoo-api/internal/observability"
	"github.com/scoo-app/scoo-api/internal/ratelimit"
	apperrors "github.com/scoo-app/scoo-api/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(apperrors.Response(domainErr))
				err = nil
			}
		}()
		return c.Next()
	}
}

// LoginRateLimit throttles credential exchange per client IP. Limiter
// failures let the request through.
func LoginRateLimit(bucket *ratelimit.TokenBucket, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if bucket == nil {
			return c.Next()
		}
		decision, err := bucket.Take(c.UserContext(), "ip", c.IP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("ip", c.IP()), zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(bucket.Capacity()))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if !decision.Allowed {
			retry := decision.RetryAfterSeconds()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			logger.Info("login throttled", zap.String("ip", c.IP()), zap.Int("retry_after", retry))
			return apperrors.NewTooManyRequests("Too many login attempts, please retry later", retry)
		}
		return c.Next()
	}
}
