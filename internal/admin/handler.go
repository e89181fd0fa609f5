package admin

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/internal/registrations"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/response"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/utils"
)

// LoginRequest is the body for POST /admin/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler handles admin authentication and dashboard endpoints.
type Handler struct {
	repo    *Repository
	regRepo *registrations.Repository
	jwt     *JWTService
	logger  *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(repo *Repository, regRepo *registrations.Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, regRepo: regRepo, jwt: jwt, logger: logger}
}

// Login handles POST /admin/login: bcrypt check, JWT on success.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password required")
		return
	}
	a, err := h.repo.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.Error("admin lookup failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	if a == nil || !utils.CheckPassword(req.Password, a.PasswordHash) {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	token, err := h.jwt.Generate(a.ID, a.Username, a.Role)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "login failed")
		return
	}
	response.OK(c, gin.H{"token": token, "username": a.Username, "role": a.Role})
}

// Dashboard handles GET /admin/dashboard/:eventId: per-event registration and
// check-in totals for the live dashboard's initial render (subsequent updates
// arrive over WebSocket).
func (h *Handler) Dashboard(c *gin.Context) {
	eventID := c.Param("eventId")
	total, checkedIn, online, kiosk, err := h.regRepo.CountByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("dashboard counts failed", zap.Error(err), zap.String("event_id", eventID))
		response.Internal(c, "failed to fetch dashboard stats")
		return
	}
	response.OK(c, gin.H{
		"event_id":             eventID,
		"total_registrations":  total,
		"total_checkins":       checkedIn,
		"online_registrations": online,
		"kiosk_registrations":  kiosk,
		"pending":              total - checkedIn,
	})
}
