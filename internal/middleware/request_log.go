package middleware

import (
	"time"

	"marketplace/internal/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const HeaderRequestID = "X-Request-ID"

// X-Request-IDが無ければ採番してレスポンスにも返す
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(CtxRequestIDKey, id)
			c.Response().Header().Set(HeaderRequestID, id)
			return next(c)
		}
	}
}

// 1リクエスト1行のアクセスログ。mがあればメトリクスも記録
func RequestLogger(logger log.FieldLogger, m *metrics.ServerMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			elapsed := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			requestID, _ := c.Get(CtxRequestIDKey).(string)

			entry := logger.WithFields(log.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     status,
				"latency_ms": elapsed.Milliseconds(),
				"request_id": requestID,
				"remoteAddr": c.RealIP(),
			})
			if id, ok := c.Get(CtxUserIDKey).(int64); ok {
				entry = entry.WithField("user_id", id)
			}
			switch {
			case status >= 500:
				entry.Error("request failed")
			case status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request handled")
			}

			if m != nil {
				m.Observe(c.Request().Method, route, status, float64(elapsed.Microseconds())/1000)
			}
			return nil
		}
	}
}
