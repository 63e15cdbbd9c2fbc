package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/service/triage"
	"mailtriage/pkg/apperr"
)

// Triager runs one triage pass.
type Triager interface {
	Run(ctx context.Context, maxResults int) (*triage.Report, error)
}

// TurnSource exposes the conversation log.
type TurnSource interface {
	AllTurns() []model.ConversationTurn
}

type importantEmailView struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Priority int    `json:"priority"`
	Summary  string `json:"summary"`
}

type TriageHandler struct {
	triage     Triager
	memory     TurnSource
	defaultMax int
	logger     *zap.Logger
}

func NewTriageHandler(t Triager, memory TurnSource, defaultMax int, logger *zap.Logger) *TriageHandler {
	if defaultMax <= 0 {
		defaultMax = 5
	}
	return &TriageHandler{
		triage:     t,
		memory:     memory,
		defaultMax: defaultMax,
		logger:     logger,
	}
}

// CheckEmails handles GET /check-emails
func (h *TriageHandler) CheckEmails(c *gin.Context) {
	maxResults := h.defaultMax
	if raw := c.Query("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, h.logger, apperr.Validation("api.CheckEmails", "max_results must be an integer, got %q", raw))
			return
		}
		maxResults = n
	}

	report, err := h.triage.Run(c.Request.Context(), maxResults)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	important := make([]importantEmailView, 0, len(report.Important))
	for _, e := range report.Important {
		important = append(important, importantEmailView{
			ID:       e.ID,
			Subject:  e.Subject,
			Priority: e.Priority,
			Summary:  e.Summary,
		})
	}
	skipped := report.Skipped()
	if skipped == nil {
		skipped = []model.ItemOutcome{}
	}

	c.JSON(http.StatusOK, gin.H{
		"important_emails": important,
		"memory":           turns(h.memory),
		"skipped":          skipped,
	})
}

func turns(src TurnSource) []model.ConversationTurn {
	out := src.AllTurns()
	if out == nil {
		return []model.ConversationTurn{}
	}
	return out
}
