package events

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/response"
)

// EventRequest is the body for creating or updating an event.
type EventRequest struct {
	Name        string    `json:"name" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	Time        string    `json:"time" binding:"required"`
	Venue       string    `json:"venue" binding:"required"`
	Description string    `json:"description" binding:"required"`
	ImageURL    string    `json:"image_url,omitempty"`
	MaxCapacity int       `json:"max_capacity,omitempty"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /events: active events only, soonest first.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to fetch events")
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id, returning the event with live counts.
func (h *Handler) GetByID(c *gin.Context) {
	summary, err := h.repo.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("get event failed", zap.Error(err))
		response.Internal(c, "failed to fetch event")
		return
	}
	if summary == nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, summary)
}

// Create handles POST /events (admin).
func (h *Handler) Create(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	maxCapacity := req.MaxCapacity
	if maxCapacity <= 0 {
		maxCapacity = 1000
	}
	event := &models.Event{
		EventID:     strings.ToUpper(uuid.New().String()[:8]),
		Name:        req.Name,
		Date:        req.Date,
		Time:        req.Time,
		Venue:       req.Venue,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    true,
		MaxCapacity: maxCapacity,
	}
	if err := h.repo.Create(c.Request.Context(), event); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, event)
}

// Update handles PUT /events/:id (admin).
func (h *Handler) Update(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	event, err := h.repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.logger.Error("get event failed", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	if event == nil {
		response.NotFound(c, "event not found")
		return
	}
	event.Name = req.Name
	event.Date = req.Date
	event.Time = req.Time
	event.Venue = req.Venue
	event.Description = req.Description
	event.ImageURL = req.ImageURL
	if req.MaxCapacity > 0 {
		event.MaxCapacity = req.MaxCapacity
	}
	if err := h.repo.Update(ctx, event); err != nil {
		h.logger.Error("update event failed", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, event)
}

// Delete handles DELETE /events/:id (admin): soft deactivation only.
func (h *Handler) Delete(c *gin.Context) {
	ok, err := h.repo.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("deactivate event failed", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	if !ok {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, gin.H{"message": "event deactivated"})
}
