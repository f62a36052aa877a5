package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/models"
	"github.com/noah-isme/housing-board-api/internal/repository"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

// eventTimeLayouts are accepted for the announcement datetime, most specific first.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

type announcementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementWithOrganizer, error)
	GetByID(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error)
}

type lightTrigger interface {
	TriggerLight(ctx context.Context)
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	triggers  lightTrigger
	validator *validator.Validate
	location  *time.Location
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service. Datetimes without a zone are read in loc.
func NewAnnouncementService(repo announcementRepository, triggers lightTrigger, validate *validator.Validate, loc *time.Location, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, triggers: triggers, validator: validate, location: loc, logger: logger}
}

// Create stores the announcement and, only once the insert has committed, turns the light on.
func (s *AnnouncementService) Create(ctx context.Context, req dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Datetime = strings.TrimSpace(req.Datetime)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid announcement payload")
	}
	eventAt, err := s.parseEventTime(req.Datetime)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid datetime")
	}

	announcement := &models.Announcement{
		Title:       req.Title,
		Datetime:    eventAt,
		Description: req.Description,
		AuthorID:    req.StudentID,
	}

	// A disconnecting client must not abort a write that is already in flight.
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.Create(ctx, announcement); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "student not found")
		}
		return nil, appErrors.Store(err, "failed to create announcement")
	}

	s.logger.Info("announcement created", zap.Int64("announcement_id", announcement.ID), zap.Int64("student_id", announcement.AuthorID))
	if s.triggers != nil {
		s.triggers.TriggerLight(ctx)
	}
	return announcement, nil
}

// List returns announcements ascending by event time.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementWithOrganizer, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list announcements")
	}
	return items, nil
}

// Get returns an announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid announcement id")
	}
	ann, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Store(err, "failed to get announcement")
	}
	return ann, nil
}

func (s *AnnouncementService) parseEventTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range eventTimeLayouts {
		t, err := time.ParseInLocation(layout, raw, s.location)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
