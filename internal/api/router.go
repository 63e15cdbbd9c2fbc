package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mailtriage/pkg/apperr"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connectivity reports whether an optional broker connection is alive.
type Connectivity interface {
	IsConnected() bool
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	triageHandler *TriageHandler,
	historyHandler *HistoryHandler,
	db Pinger,
	events Connectivity,
	jwtSecret string,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(TraceMiddleware(), AccessLogMiddleware(logger), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		writeError(c, logger, apperr.Internal("api.recover", fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	}))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// MQ is optional: a dropped connection is reported but does not fail readiness
	r.GET("/readyz", func(c *gin.Context) {
		body := gin.H{"status": "ready"}
		if events != nil {
			body["mq"] = "connected"
			if !events.IsConnected() {
				body["mq"] = "disconnected"
			}
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				body["status"] = "db_not_ready"
				body["error"] = err.Error()
				c.JSON(http.StatusInternalServerError, body)
				return
			}
		}

		c.JSON(http.StatusOK, body)
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected when a JWT secret is configured
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/check-emails", triageHandler.CheckEmails)
		auth.GET("/email-history", historyHandler.EmailHistory)
		auth.GET("/history", historyHandler.ChatHistory)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
