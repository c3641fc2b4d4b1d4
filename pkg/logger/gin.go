package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ginLoggerKey    = "logger"
)

// Middleware logs one line per request. The request id is taken from the
// caller or minted, echoed back, and bound to the logger that handlers get
// from From or FromGin. Callback routes also carry the room.
func Middleware(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		l := base.With("request_id", rid)
		if room := c.Param("room"); room != "" {
			l = l.With("room", room)
		}
		c.Set(ginLoggerKey, l)
		c.Request = c.Request.WithContext(With(c.Request.Context(), l))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"elapsed_ms", time.Since(began).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500 || len(c.Errors) > 0:
			l.Error("http request", attrs...)
		case status >= 400:
			l.Warn("http request", attrs...)
		default:
			l.Info("http request", attrs...)
		}
	}
}

// FromGin returns the logger bound by Middleware, or slog.Default.
func FromGin(c *gin.Context) *slog.Logger {
	if l, ok := c.Value(ginLoggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
