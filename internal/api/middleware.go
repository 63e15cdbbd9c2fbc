package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailtriage/pkg/logger"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/trace"
)

// AuthMiddleware requires a valid bearer token. An empty secret disables it.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			c.Next()
			return
		}

		token := ExtractToken(c.Request)
		if token == "" {
			abortUnauthorized(c, "missing token")
			return
		}

		subject, err := ParseToken(token, jwtSecret)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set("subject", subject)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"kind": "unauthorized", "message": msg},
	})
}

// TraceMiddleware 为每个请求分配 trace_id，写入 context 并回写到响应头
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName), c.GetHeader("X-Request-ID"))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

// AccessLogMiddleware 记录请求耗时并上报 HTTP 延迟指标
func AccessLogMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(status), elapsed)

		logger.WithTrace(c.Request.Context(), l).Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
	}
}
