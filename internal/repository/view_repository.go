package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ViewRepository stores read receipts.
type ViewRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewViewRepository creates the repository.
func NewViewRepository(db *sqlx.DB, metrics QueryObserver) *ViewRepository {
	return &ViewRepository{db: db, metrics: observerOrNop(metrics)}
}

// Record inserts the receipt in a single statement; the unique_view constraint absorbs duplicates.
// It reports whether a new row was written.
func (r *ViewRepository) Record(ctx context.Context, announcementID, studentID int64) (bool, error) {
	const query = `INSERT INTO announcement_views (announcement_id, student_id)
VALUES ($1, $2) ON CONFLICT ON CONSTRAINT unique_view DO NOTHING`
	start := time.Now()
	defer func() { r.metrics.ObserveDBQuery("view_record", time.Since(start)) }()

	res, err := r.db.ExecContext(ctx, query, announcementID, studentID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, writeError(err, "record view")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record view rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListReaders returns the names of students that viewed the announcement, one per receipt.
func (r *ViewRepository) ListReaders(ctx context.Context, announcementID int64) ([]string, error) {
	const query = `SELECT s.name FROM announcement_views v JOIN students s ON s.id = v.student_id
WHERE v.announcement_id = $1 ORDER BY v.viewed_at ASC, v.id ASC`
	start := time.Now()
	defer func() { r.metrics.ObserveDBQuery("view_readers", time.Since(start)) }()

	names := make([]string, 0)
	if err := r.db.SelectContext(ctx, &names, query, announcementID); err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	return names, nil
}
