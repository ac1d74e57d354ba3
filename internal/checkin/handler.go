package checkin

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sgs-visits/backend/internal/credential"
	"github.com/sgs-visits/backend/pkg/response"
)

// Store is the persistence surface the handler needs. *Repository satisfies
// it; tests use an in-memory fake.
type Store interface {
	CheckInByID(ctx context.Context, id uuid.UUID) (*Result, error)
	CheckInByContact(ctx context.Context, phone, email string) (*Result, error)
}

// Feed receives successful check-ins for the live dashboard feed. May be nil.
type Feed interface {
	Arrival(res *Result)
}

// Request is the body for POST /visits/check-in. Scanners normally send the
// decoded fields; Credential carries raw scanned text for scanners that
// defer decoding to the server.
type Request struct {
	VisitID     string `json:"visitId"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	Credential  string `json:"credential"`
}

// Handler resolves a scanned credential to a visit record and marks it
// visited.
type Handler struct {
	store  Store
	feed   Feed
	logger *zap.Logger
}

// NewHandler creates a check-in handler.
func NewHandler(store Store, feed Feed, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, feed: feed, logger: logger}
}

// CheckIn handles POST /visits/check-in. Resolution uses exactly one path:
// the direct id when present, otherwise the phone/email fallback with the
// most recent row winning. Re-scans of an already-visited record succeed.
func (h *Handler) CheckIn(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid JSON body")
		return
	}

	visitID := strings.TrimSpace(req.VisitID)
	phone := strings.TrimSpace(req.PhoneNumber)
	email := strings.TrimSpace(req.Email)

	if raw := strings.TrimSpace(req.Credential); raw != "" {
		identity, err := credential.Decode(raw)
		if err != nil {
			response.BadRequest(c, "Malformed credential")
			return
		}
		if visitID == "" {
			visitID = identity.VisitID
		}
		if phone == "" {
			phone = identity.PhoneNumber
		}
	}

	if visitID == "" && phone == "" && email == "" {
		response.BadRequest(c, "visitId or phoneNumber is required")
		return
	}

	var res *Result
	var err error
	if visitID != "" {
		id, parseErr := uuid.Parse(visitID)
		if parseErr != nil {
			// Not a store-assigned id, so no row can match.
			response.NotFound(c, "Visit not found")
			return
		}
		res, err = h.store.CheckInByID(c.Request.Context(), id)
	} else {
		res, err = h.store.CheckInByContact(c.Request.Context(), phone, email)
	}
	if err != nil {
		h.logger.Error("check-in failed", zap.Error(err), zap.String("visit_id", visitID))
		response.Internal(c, "Server error")
		return
	}
	if res == nil {
		response.NotFound(c, "Visit not found")
		return
	}

	if h.feed != nil {
		h.feed.Arrival(res)
	}
	h.logger.Info("visitor checked in",
		zap.String("visit_id", res.ID.String()),
		zap.String("phone", res.PhoneNumber),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"visitId":     res.ID,
		"visited":     res.Visited,
		"childName":   res.ChildName,
		"phoneNumber": res.PhoneNumber,
		"email":       res.Email,
	})
}
