package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/models"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
	"github.com/noah-isme/housing-board-api/pkg/response"
)

type announcementService interface {
	Create(ctx context.Context, req dto.CreateAnnouncementRequest) (*models.Announcement, error)
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementWithOrganizer, error)
	Get(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error)
}

type readTrackingService interface {
	MarkRead(ctx context.Context, announcementID int64, req dto.MarkReadRequest) error
	Readers(ctx context.Context, announcementID int64) ([]string, error)
}

// AnnouncementHandler exposes the announcement and read-receipt endpoints.
type AnnouncementHandler struct {
	announcements announcementService
	reads         readTrackingService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(announcements announcementService, reads readTrackingService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, reads: reads}
}

// Create godoc
// @Summary Announce a party
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body dto.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.MessageBody
// @Failure 500 {object} response.ErrorBody
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid announcement payload"))
		return
	}
	ann, err := h.announcements.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Feestje aangekondigd!", ann.ID)
}

// List godoc
// @Summary List announcements ascending by event time
// @Tags Announcements
// @Produce json
// @Param filter query string false "future to hide past events"
// @Success 200 {array} models.AnnouncementWithOrganizer
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	items, err := h.announcements.List(c.Request.Context(), models.ParseAnnouncementFilter(c.Query("filter")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get one announcement
// @Tags Announcements
// @Produce json
// @Param id path int true "Announcement ID"
// @Success 200 {object} models.AnnouncementWithOrganizer
// @Failure 404 {object} response.ErrorBody
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ann, err := h.announcements.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ann)
}

// MarkRead godoc
// @Summary Mark an announcement as read; repeating the call is harmless
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path int true "Announcement ID"
// @Param payload body dto.MarkReadRequest true "Reader"
// @Success 200 {object} response.MessageBody
// @Router /announcements/{id}/read [post]
func (h *AnnouncementHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid read payload"))
		return
	}
	if err := h.reads.MarkRead(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Marked as read")
}

// Readers godoc
// @Summary Names of the students that read an announcement
// @Tags Announcements
// @Produce json
// @Param id path int true "Announcement ID"
// @Success 200 {array} string
// @Router /announcements/{id}/readers [get]
func (h *AnnouncementHandler) Readers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	names, err := h.reads.Readers(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}
