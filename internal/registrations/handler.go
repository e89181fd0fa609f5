package registrations

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/internal/credential"
	"github.com/KATHANJAIN1311/creative-era-event/internal/events"
	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/queue"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/response"
)

// RegisterRequest is the body for POST /registrations.
type RegisterRequest struct {
	EventID      string `json:"event_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Organization string `json:"organization,omitempty"`
	Designation  string `json:"designation,omitempty"`
	Type         string `json:"registration_type,omitempty"` // online (default) or kiosk
}

// Broadcaster pushes new-registration notifications to dashboards.
type Broadcaster interface {
	PublishRegistration(eventID string, reg *models.Registration)
}

// Jobs enqueues the background work triggered by a registration.
type Jobs interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
	EnqueueQRUpload(ctx context.Context, payload queue.QRUploadPayload) error
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo        *Repository
	eventRepo   *events.Repository
	codec       *credential.Codec
	broadcaster Broadcaster
	jobs        Jobs
	logger      *zap.Logger
}

// NewHandler creates a registrations handler. broadcaster and jobs may be nil.
func NewHandler(repo *Repository, eventRepo *events.Repository, codec *credential.Codec, broadcaster Broadcaster, jobs Jobs, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:        repo,
		eventRepo:   eventRepo,
		codec:       codec,
		broadcaster: broadcaster,
		jobs:        jobs,
		logger:      logger,
	}
}

// Create handles POST /registrations. Mints the registration ID and its QR
// credential, persists the record as pending, notifies dashboards and queues
// the confirmation email. Email delivery failing never fails the
// registration.
func (h *Handler) Create(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	event, err := h.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		h.logger.Error("event lookup failed", zap.Error(err), zap.String("event_id", req.EventID))
		response.Internal(c, "failed to register")
		return
	}
	if event == nil || !event.IsActive {
		response.NotFound(c, "event not found")
		return
	}

	total, _, _, _, err := h.repo.CountByEvent(ctx, req.EventID)
	if err != nil {
		h.logger.Error("capacity check failed", zap.Error(err), zap.String("event_id", req.EventID))
		response.Internal(c, "failed to register")
		return
	}
	if event.MaxCapacity > 0 && total >= event.MaxCapacity {
		response.Conflict(c, "event is at capacity")
		return
	}

	regType := models.RegistrationOnline
	if models.RegistrationType(req.Type) == models.RegistrationKiosk {
		regType = models.RegistrationKiosk
	}

	registrationID := newRegistrationID()
	reg := &models.Registration{
		RegistrationID: registrationID,
		EventID:        req.EventID,
		Name:           sanitize(req.Name),
		Email:          sanitize(req.Email),
		Phone:          sanitize(req.Phone),
		Organization:   sanitize(req.Organization),
		Designation:    sanitize(req.Designation),
		Credential:     h.codec.Encode(registrationID, req.EventID),
		Type:           regType,
		Status:         models.StatusPending,
	}
	if err := h.repo.Create(ctx, reg); err != nil {
		h.logger.Error("create registration failed", zap.Error(err), zap.String("event_id", req.EventID))
		response.Internal(c, "failed to register")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.PublishRegistration(reg.EventID, reg)
	}
	h.enqueueFollowups(ctx, reg, event)

	response.Created(c, gin.H{
		"registration": reg,
		"credential":   reg.Credential,
	})
}

// GetByID handles GET /registrations/:id. Kiosks use this to pre-validate a
// credential without committing a check-in; it never mutates state.
func (h *Handler) GetByID(c *gin.Context) {
	reg, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("get registration failed", zap.Error(err))
		response.Internal(c, "failed to fetch registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration not found")
		return
	}
	response.OK(c, reg)
}

// Search handles GET /registrations?email=&event_id=. Case-insensitive; no
// match returns an empty list.
func (h *Handler) Search(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		response.BadRequest(c, "email query parameter required")
		return
	}
	list, err := h.repo.FindByEmail(c.Request.Context(), c.Query("event_id"), email)
	if err != nil {
		h.logger.Error("search registrations failed", zap.Error(err))
		response.Internal(c, "failed to search registrations")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, list)
}

// ListByEvent handles GET /registrations/event/:eventId (admin).
func (h *Handler) ListByEvent(c *gin.Context) {
	list, err := h.repo.ListByEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to fetch registrations")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, list)
}

// List handles GET /registrations/all (admin).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to fetch registrations")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, list)
}

func (h *Handler) enqueueFollowups(ctx context.Context, reg *models.Registration, event *models.Event) {
	if h.jobs == nil {
		return
	}
	if err := h.jobs.EnqueueEmail(ctx, queue.EmailPayload{
		RegistrationID: reg.RegistrationID,
		EventID:        reg.EventID,
		RecipientEmail: reg.Email,
		RecipientName:  reg.Name,
		EventName:      event.Name,
		Credential:     reg.Credential,
	}); err != nil {
		h.logger.Warn("enqueue confirmation email failed",
			zap.Error(err), zap.String("registration_id", reg.RegistrationID))
	}
	if err := h.jobs.EnqueueQRUpload(ctx, queue.QRUploadPayload{
		RegistrationID: reg.RegistrationID,
		EventID:        reg.EventID,
		Credential:     reg.Credential,
	}); err != nil {
		h.logger.Warn("enqueue qr upload failed",
			zap.Error(err), zap.String("registration_id", reg.RegistrationID))
	}
}

// newRegistrationID mints the 8-character public registration ID.
func newRegistrationID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

// sanitize strips angle brackets from user-supplied fields before they reach
// emails or dashboards.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return strings.TrimSpace(s)
}
