package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bizflow/internal/api"
	"bizflow/internal/biz"
	"bizflow/internal/biz/code"
	"bizflow/internal/platform/metrics"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	resultKey    = "result_code"
)

// TokenHeader carries the caller's BIZ_TOKEN.
const TokenHeader = "X-Biz-Token"

// TokenAuth rejects requests whose BIZ_TOKEN is missing or not in tokens.
// An empty token list lets every request through.
func TokenAuth(tokens []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			allowed[t] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}
		tok := c.GetHeader(TokenHeader)
		if tok == "" {
			abort(c, api.Error[any](code.TokenRequired))
			return
		}
		if _, ok := allowed[tok]; !ok {
			abort(c, api.Error[any](code.TokenInvalid, tok))
			return
		}
		c.Next()
	}
}

// Recovery turns a panic into an envelope. A raised *biz.Error keeps its
// code and message; anything else becomes the generic failure.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if e, ok := rec.(*biz.Error); ok {
				log.Warn("raised", slog.String("path", c.FullPath()), slog.Int("code", e.Code()), slog.String("message", e.Message()))
				abort(c, api.Result[any](e.Code(), e.Message(), nil))
				return
			}
			log.Error("panic", slog.String("path", c.FullPath()), slog.Any("panic", rec))
			abort(c, api.Error[any](code.Fail, "internal error"))
		}()
		c.Next()
	}
}

// RequestID reuses the caller's X-Request-ID or assigns a new UUID, and
// echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("request_id", c.GetString(requestIDKey)),
		}
		if v, ok := c.Get(resultKey); ok {
			attrs = append(attrs, slog.Any("code", v))
		}
		log.Debug("http", attrs...)
	}
}

// Instrument records request counts, latency and envelope codes.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
		if v, ok := c.Get(resultKey); ok {
			if n, ok := v.(int); ok {
				m.ObserveResult(n)
			}
		}
	}
}

func abort(c *gin.Context, env api.Envelope[any]) {
	c.Set(resultKey, env.Code)
	c.AbortWithStatusJSON(http.StatusOK, env)
}
