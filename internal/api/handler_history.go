package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailtriage/internal/model"
)

// EmailLister reads every stored email.
type EmailLister interface {
	GetAll(ctx context.Context) ([]model.StoredEmail, error)
}

type HistoryHandler struct {
	emails EmailLister
	memory TurnSource
	logger *zap.Logger
}

func NewHistoryHandler(emails EmailLister, memory TurnSource, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		emails: emails,
		memory: memory,
		logger: logger,
	}
}

// EmailHistory handles GET /email-history
func (h *HistoryHandler) EmailHistory(c *gin.Context) {
	emails, err := h.emails.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if emails == nil {
		emails = []model.StoredEmail{}
	}

	c.JSON(http.StatusOK, gin.H{
		"emails": emails,
		"memory": turns(h.memory),
	})
}

// ChatHistory handles GET /history
func (h *HistoryHandler) ChatHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"chat_history": turns(h.memory),
	})
}
