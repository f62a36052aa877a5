package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/housing-board-api/internal/models"
)

// StudentRepository resolves residents for display.
type StudentRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewStudentRepository creates the repository.
func NewStudentRepository(db *sqlx.DB, metrics QueryObserver) *StudentRepository {
	return &StudentRepository{db: db, metrics: observerOrNop(metrics)}
}

// FindByID returns a student or sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDBQuery("student_get", time.Since(start)) }()

	var student models.Student
	if err := r.db.GetContext(ctx, &student, "SELECT id, name FROM students WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &student, nil
}
