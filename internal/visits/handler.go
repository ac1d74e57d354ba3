package visits

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sgs-visits/backend/internal/credential"
	"github.com/sgs-visits/backend/internal/models"
	"github.com/sgs-visits/backend/pkg/response"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Store is the persistence surface the handler needs. *Repository satisfies
// it; tests use an in-memory fake.
type Store interface {
	Insert(ctx context.Context, rec *models.VisitRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.VisitRecord, error)
	FindByContact(ctx context.Context, email, phone string) (*models.VisitRecord, error)
	List(ctx context.Context, search string, limit, offset int) ([]models.VisitRecord, int, error)
	Update(ctx context.Context, rec *models.VisitRecord) (*models.VisitRecord, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Notifier queues a registration confirmation for a newly created record.
// Best-effort: failures are logged, never surfaced to the registrant.
type Notifier interface {
	QueueConfirmation(ctx context.Context, rec *models.VisitRecord)
}

// GateFunc authorizes dashboard-only request branches. A nil gate means the
// dashboard password is not configured and the surface is open.
type GateFunc func(c *gin.Context) error

// Handler handles visit record HTTP endpoints.
type Handler struct {
	store    Store
	notifier Notifier
	gate     GateFunc
	logger   *zap.Logger
}

// NewHandler creates a visits handler.
func NewHandler(store Store, notifier Notifier, gate GateFunc, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, notifier: notifier, gate: gate, logger: logger}
}

// VisitRequest is the body for POST /visits and, with ID set, PUT /visits.
type VisitRequest struct {
	ID           string           `json:"id"`
	ChildName    string           `json:"childName"`
	ClassName    string           `json:"className"`
	PhoneNumber  string           `json:"phoneNumber"`
	FatherName   string           `json:"fatherName"`
	Email        string           `json:"email"`
	VisitorCount models.FlexCount `json:"visitorCount"`
	VisitorType  string           `json:"visitorType"`
	Visited      bool             `json:"visited"`
}

// toRecord trims the request and applies the placeholder policy: non-parent
// submissions store child/class as "N/A" when blank.
func (req *VisitRequest) toRecord() *models.VisitRecord {
	rec := &models.VisitRecord{
		ChildName:    strings.TrimSpace(req.ChildName),
		ClassName:    strings.TrimSpace(req.ClassName),
		FatherName:   strings.TrimSpace(req.FatherName),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		Email:        strings.TrimSpace(req.Email),
		VisitorCount: int(req.VisitorCount),
		VisitorType:  strings.TrimSpace(req.VisitorType),
		Visited:      req.Visited,
	}
	if !rec.IsParent() {
		if rec.ChildName == "" {
			rec.ChildName = models.PlaceholderValue
		}
		if rec.ClassName == "" {
			rec.ClassName = models.PlaceholderValue
		}
	}
	return rec
}

// validate enforces the registration rules: contact identity is always
// required; parents must name the child and class; other visitor types must
// carry the visitor's name.
func (req *VisitRequest) validate() string {
	phone := strings.TrimSpace(req.PhoneNumber)
	email := strings.TrimSpace(req.Email)
	if phone == "" || email == "" {
		return "Missing required fields"
	}
	if strings.TrimSpace(req.VisitorType) == models.VisitorTypeParent {
		if strings.TrimSpace(req.ChildName) == "" || strings.TrimSpace(req.ClassName) == "" {
			return "Missing required fields"
		}
	} else if strings.TrimSpace(req.FatherName) == "" {
		return "Missing required fields"
	}
	return ""
}

// Create handles POST /visits.
func (h *Handler) Create(c *gin.Context) {
	var req VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(c, msg)
		return
	}

	rec := req.toRecord()
	if err := h.store.Insert(c.Request.Context(), rec); err != nil {
		h.logger.Error("insert visit failed", zap.Error(err))
		response.Internal(c, "Server error")
		return
	}

	if h.notifier != nil {
		h.notifier.QueueConfirmation(c.Request.Context(), rec)
	}

	c.JSON(http.StatusOK, gin.H{"id": rec.ID})
}

// Get handles GET /visits: identity lookup by default, listing with mode=list.
func (h *Handler) Get(c *gin.Context) {
	if c.Query("mode") == "list" {
		h.list(c)
		return
	}
	h.lookup(c)
}

// lookup resolves the most recent record for an email and/or phone number.
// The registration form calls this before creating, so repeat registrants
// get their existing credential back instead of a duplicate row.
func (h *Handler) lookup(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	phone := strings.TrimSpace(c.Query("phoneNumber"))
	if email == "" && phone == "" {
		response.BadRequest(c, "email or phoneNumber is required")
		return
	}

	rec, err := h.store.FindByContact(c.Request.Context(), email, phone)
	if err != nil {
		h.logger.Error("contact lookup failed", zap.Error(err))
		response.Internal(c, "Server error")
		return
	}
	if rec == nil {
		response.NotFound(c, "Visit not found")
		return
	}
	response.OK(c, rec)
}

// list returns the paginated dashboard listing, as JSON or CSV.
func (h *Handler) list(c *gin.Context) {
	if h.gate != nil {
		if err := h.gate(c); err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
	}

	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	page := 1
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	search := strings.TrimSpace(c.Query("search"))

	records, total, err := h.store.List(c.Request.Context(), search, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error("list visits failed", zap.Error(err))
		response.Internal(c, "Server error")
		return
	}

	if c.Query("format") == "csv" {
		writeCSV(c, records)
		return
	}
	if records == nil {
		records = []models.VisitRecord{}
	}
	response.OK(c, gin.H{"records": records, "total": total})
}

// Update handles PUT /visits: full-row overwrite by id.
func (h *Handler) Update(c *gin.Context) {
	var req VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		response.BadRequest(c, "id is required")
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(req.ID))
	if err != nil {
		// Not a store-assigned id, so no row can match.
		response.NotFound(c, "Visit not found")
		return
	}

	rec := req.toRecord()
	rec.ID = id
	updated, err := h.store.Update(c.Request.Context(), rec)
	if err != nil {
		h.logger.Error("update visit failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Server error")
		return
	}
	if updated == nil {
		response.NotFound(c, "Visit not found")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /visits?id=.
func (h *Handler) Delete(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("id"))
	if raw == "" {
		response.BadRequest(c, "id is required")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.NotFound(c, "Visit not found")
		return
	}

	deleted, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete visit failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Server error")
		return
	}
	if !deleted {
		response.NotFound(c, "Visit not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// QRImage handles GET /visits/:id/qr: renders the record's credential as a
// PNG. With ?download=1 the response carries an attachment disposition named
// after the child, same as the browser download did.
func (h *Handler) QRImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Visit not found")
		return
	}
	rec, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get visit failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Server error")
		return
	}
	if rec == nil {
		response.NotFound(c, "Visit not found")
		return
	}

	size := credential.DefaultImageSize
	if v := c.Query("size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 1024 {
			size = parsed
		}
	}

	png, err := credential.Render(credential.FromRecord(rec), size)
	if err != nil {
		h.logger.Error("render qr failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Server error")
		return
	}

	if c.Query("download") == "1" {
		c.Header("Content-Disposition", `attachment; filename="visitor-`+sanitizeFileName(rec.ChildName)+`.png"`)
	}
	c.Data(http.StatusOK, "image/png", png)
}

// sanitizeFileName lowercases and strips a name down to [a-z0-9-] for use in
// a download filename.
func sanitizeFileName(name string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "visitor"
	}
	return out
}
