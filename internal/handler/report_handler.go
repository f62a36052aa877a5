package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/models"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
	"github.com/noah-isme/housing-board-api/pkg/response"
)

type reportService interface {
	Create(ctx context.Context, req dto.CreateReportRequest) (*models.Report, error)
}

// ReportHandler exposes the disturbance report endpoint.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Create godoc
// @Summary Report an unannounced party
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.MessageBody
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid report payload"))
		return
	}
	report, err := h.reports.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Melding verstuurd.", report.ID)
}
