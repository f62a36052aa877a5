package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/internal/repository"
	"github.com/noah-isme/housing-board-api/pkg/cache"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

type viewRepository interface {
	Record(ctx context.Context, announcementID, studentID int64) (bool, error)
	ListReaders(ctx context.Context, announcementID int64) ([]string, error)
}

type viewObserver interface {
	ObserveView(inserted bool)
}

// ReadTrackingService owns the mark-as-read contract: any number of calls for the same
// announcement and student converge on one receipt and all of them succeed. Deduplication
// happens in the single insert statement, never through a prior lookup.
type ReadTrackingService struct {
	repo      viewRepository
	cache     *CacheService
	metrics   viewObserver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReadTrackingService constructs the service. cache may be nil.
func NewReadTrackingService(repo viewRepository, cacheSvc *CacheService, metrics viewObserver, validate *validator.Validate, logger *zap.Logger) *ReadTrackingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadTrackingService{repo: repo, cache: cacheSvc, metrics: metrics, validator: validate, logger: logger}
}

// MarkRead records that the student has read the announcement.
func (s *ReadTrackingService) MarkRead(ctx context.Context, announcementID int64, req dto.MarkReadRequest) error {
	if announcementID <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid announcement id")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid read payload")
	}

	ctx = context.WithoutCancel(ctx)
	inserted, err := s.repo.Record(ctx, announcementID, req.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "announcement or student not found")
		}
		return appErrors.Store(err, "failed to mark announcement as read")
	}
	if s.metrics != nil {
		s.metrics.ObserveView(inserted)
	}
	if inserted {
		_ = s.cache.Bump(ctx, cache.ReadersGenerationKey(announcementID))
	}
	s.logger.Debug("announcement read", zap.Int64("announcement_id", announcementID), zap.Int64("student_id", req.StudentID), zap.Bool("first_read", inserted))
	return nil
}

// Readers returns the names of the students that read the announcement.
//
// Cached lists are keyed by the generation read before querying the store. A first read bumps
// the generation after its insert, so a list fetched concurrently with that insert lands under
// a key no later call looks up.
func (s *ReadTrackingService) Readers(ctx context.Context, announcementID int64) ([]string, error) {
	if announcementID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid announcement id")
	}

	gen, cacheable := s.cache.Generation(ctx, cache.ReadersGenerationKey(announcementID))
	key := cache.ReadersKey(announcementID, gen)
	if cacheable {
		var cached []string
		if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached != nil {
			return cached, nil
		}
	}

	names, err := s.repo.ListReaders(ctx, announcementID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list readers")
	}
	if cacheable {
		_ = s.cache.Set(ctx, key, names, 0)
	}
	return names, nil
}
