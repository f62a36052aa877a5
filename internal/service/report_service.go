package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/internal/repository"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

type reportRepository interface {
	Create(ctx context.Context, report *models.Report) error
}

type alarmTrigger interface {
	TriggerAlarm(ctx context.Context)
}

// ReportService files disturbance reports.
type ReportService struct {
	repo      reportRepository
	triggers  alarmTrigger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(repo reportRepository, triggers alarmTrigger, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, triggers: triggers, validator: validate, logger: logger}
}

// Create stores the report and sounds the alarm after the insert commits.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest) (*models.Report, error) {
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid report payload")
	}
	if req.Description == "" {
		req.Description = models.DefaultReportDescription
	}

	report := &models.Report{StudentID: req.StudentID, Description: req.Description}
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.Create(ctx, report); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "student not found")
		}
		return nil, appErrors.Store(err, "failed to create report")
	}

	s.logger.Info("disturbance reported", zap.Int64("report_id", report.ID), zap.Int64("student_id", report.StudentID))
	if s.triggers != nil {
		s.triggers.TriggerAlarm(ctx)
	}
	return report, nil
}
