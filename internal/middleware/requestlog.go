package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestID copies X-Request-ID from the request or generates one, and
// echoes it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// RequestLogger logs one line per request, at warn for 4xx and error
// for 5xx responses.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []zap.Field{
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.Int("status", res.Status),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.String("ip", c.RealIP()),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes_out", res.Size),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			switch {
			case res.Status >= 500:
				log.Error("server error", fields...)
			case res.Status >= 400:
				log.Warn("client error", fields...)
			default:
				log.Info("request completed", fields...)
			}
			return nil
		}
	}
}
