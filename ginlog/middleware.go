// Package ginlog wires sanelog into a gin engine: per-request IDs and access
// records emitted through the configured handler.
package ginlog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sanelog"
)

// HeaderRequestID is echoed on every response so clients and proxies can
// correlate records.
const HeaderRequestID = "X-Request-ID"

const ginContextKey = "sanelog.request_id"

type ctxKey struct{}

// Attach installs the logging middleware on a gin engine. This is the single
// setup call host applications make at boot, after sanelog.Setup.
func Attach(app *gin.Engine, l *sanelog.Logging) {
	app.Use(RequestID())
	app.Use(AccessLog(l))
}

// RequestID assigns each request a unique ID, honoring one supplied by an
// upstream proxy. The ID is stored on the gin context and the request
// context and echoed as the X-Request-ID response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ginContextKey, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ctxKey{}, id))
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// FromContext returns the request ID stored by RequestID, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestIDFrom is FromContext for handlers holding the gin context.
func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ginContextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type accessOptions struct {
	skipPaths map[string]struct{}
}

// AccessOption adjusts the access logger.
type AccessOption func(*accessOptions)

// WithSkipPaths replaces the default skip list (/healthz). Probe traffic on
// the listed paths produces no access records.
func WithSkipPaths(paths ...string) AccessOption {
	return func(o *accessOptions) {
		o.skipPaths = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			o.skipPaths[p] = struct{}{}
		}
	}
}

// AccessLog emits one record per request on the gin.access channel: method,
// path, status, remote, host, timing, user agent and response length, merged
// flat into the record. Requests on skipped paths are not logged. Statuses
// from 400 up log at Warn, everything else at Info.
func AccessLog(l *sanelog.Logging, opts ...AccessOption) gin.HandlerFunc {
	o := accessOptions{skipPaths: map[string]struct{}{"/healthz": {}}}
	for _, fn := range opts {
		fn(&o)
	}
	logger := l.Logger("gin.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if _, skip := o.skipPaths[path]; skip {
			return
		}

		status := c.Writer.Status()
		host := c.Request.Host
		if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
			host = fwd
		}
		millis := math.Round(float64(time.Since(start).Nanoseconds())/1e6*100) / 100

		level := slog.LevelInfo
		if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level,
			fmt.Sprintf("%s %s %d", c.Request.Method, path, status),
			slog.String("type", "access"),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status_code", status),
			slog.String("remote", c.Request.RemoteAddr),
			slog.String("host", host),
			slog.Float64("request_ms", millis),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Int("length", c.Writer.Size()),
			slog.String("request_id", RequestIDFrom(c)),
		)
	}
}
