package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/housing-board-api/internal/models"
)

// ReportRepository stores disturbance complaints.
type ReportRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewReportRepository creates the repository.
func NewReportRepository(db *sqlx.DB, metrics QueryObserver) *ReportRepository {
	return &ReportRepository{db: db, metrics: observerOrNop(metrics)}
}

// Create inserts the complaint and fills its id and timestamp.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	const query = `INSERT INTO complaints (student_id, description) VALUES ($1, $2) RETURNING id, reported_at`
	start := time.Now()
	defer func() { r.metrics.ObserveDBQuery("report_create", time.Since(start)) }()

	if err := r.db.QueryRowxContext(ctx, query, report.StudentID, report.Description).Scan(&report.ID, &report.Datetime); err != nil {
		return writeError(err, "create report")
	}
	return nil
}
