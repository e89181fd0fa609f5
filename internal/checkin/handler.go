package checkin

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/pkg/response"
)

// VerifyRequest is the body for POST /checkins/verify. QRData carries either
// a scanned token or a manually entered registration ID.
type VerifyRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// Handler exposes the check-in endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a check-in handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, repo: repo, logger: logger}
}

// Verify handles POST /checkins/verify. AlreadyCheckedIn is reported as a
// 200 outcome, not an error: the scanner shows it to the attendee and moves
// on. Only transient store faults become 5xx, and those are safe to retry.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "qr_data must be a non-empty string")
		return
	}

	outcome, err := h.service.Verify(c.Request.Context(), req.QRData)
	switch {
	case errors.Is(err, ErrInvalidCredential):
		response.BadRequest(c, "invalid QR code format")
		return
	case errors.Is(err, ErrUnknownRegistration):
		response.NotFound(c, "registration not found")
		return
	case errors.Is(err, ErrStoreUnavailable):
		h.logger.Error("check-in store unavailable", zap.Error(err))
		response.ServiceUnavailable(c, "check-in temporarily unavailable, please retry")
		return
	case err != nil:
		h.logger.Error("check-in verify failed", zap.Error(err))
		response.Internal(c, "check-in failed")
		return
	}

	response.OK(c, outcome)
}

// ListByEvent handles GET /checkins/event/:eventId (admin check-in log).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID := c.Param("eventId")
	if eventID == "" {
		response.BadRequest(c, "event id required")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list checkins failed", zap.Error(err), zap.String("event_id", eventID))
		response.Internal(c, "failed to fetch check-ins")
		return
	}
	if list == nil {
		list = []CheckInDetail{}
	}
	response.OK(c, list)
}
