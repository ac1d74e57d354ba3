package emaillogs

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sgs-visits/backend/internal/models"
	"github.com/sgs-visits/backend/pkg/queue"
	"github.com/sgs-visits/backend/pkg/response"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// VisitSource looks up the visit a log row belongs to, so a resend can
// rebuild the email body. *visits.Repository satisfies it.
type VisitSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.VisitRecord, error)
}

// Handler exposes the dashboard's email log endpoints.
type Handler struct {
	repo   *Repository
	visits VisitSource
	queue  *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, visits VisitSource, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, visits: visits, queue: q, logger: logger}
}

// List handles GET /emails: recent delivery logs, newest first.
func (h *Handler) List(c *gin.Context) {
	limit := defaultLogLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	logs, err := h.repo.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err))
		response.Internal(c, "Server error")
		return
	}
	if logs == nil {
		logs = []models.EmailLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Resend handles POST /emails/:id/resend: re-queues a logged email.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Email log not found")
		return
	}
	log, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get email log failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Server error")
		return
	}
	if log == nil {
		response.NotFound(c, "Email log not found")
		return
	}

	payload := queue.EmailPayload{
		EmailType:      log.EmailType,
		EmailLogID:     log.ID,
		RecipientEmail: log.RecipientEmail,
		Subject:        log.Subject,
	}
	if log.VisitID != nil {
		payload.VisitID = *log.VisitID
		rec, err := h.visits.GetByID(c.Request.Context(), *log.VisitID)
		if err != nil {
			h.logger.Error("get visit for resend failed", zap.Error(err), zap.String("id", log.VisitID.String()))
			response.Internal(c, "Server error")
			return
		}
		if rec != nil {
			payload.Body = confirmationBody(rec)
		}
	}

	if err := h.queue.EnqueueEmail(c.Request.Context(), payload); err != nil {
		h.logger.Error("resend enqueue failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
