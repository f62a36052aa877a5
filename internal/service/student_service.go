package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/housing-board-api/internal/models"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// StudentService resolves residents for clients that need a display name.
type StudentService struct {
	repo studentRepository
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository) *StudentService {
	return &StudentService{repo: repo}
}

// Get returns the student or a not-found error.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Store(err, "failed to get student")
	}
	return student, nil
}
