package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailtriage/pkg/apperr"
	"mailtriage/pkg/logger"
)

func statusFor(kind apperr.Kind) int {
	if kind == apperr.KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError maps err to its HTTP status and the {"error":{kind,message}} body.
func writeError(c *gin.Context, l *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.WithTrace(c.Request.Context(), l).Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{
		"error": gin.H{"kind": kind, "message": err.Error()},
	})
}
