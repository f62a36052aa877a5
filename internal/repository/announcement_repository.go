package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/housing-board-api/internal/models"
)

const announcementSelect = `SELECT a.id, a.title, a.event_at, a.description, a.student_id, a.created_at, s.name AS organizer
FROM announcements a JOIN students s ON s.id = a.student_id`

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB, metrics QueryObserver) *AnnouncementRepository {
	return &AnnouncementRepository{db: db, metrics: observerOrNop(metrics)}
}

// Create inserts a new announcement and fills the server-assigned id and creation time.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	const query = `INSERT INTO announcements (title, event_at, description, student_id)
VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	start := time.Now()
	defer func() { r.metrics.ObserveDBQuery("announcement_create", time.Since(start)) }()

	row := r.db.QueryRowxContext(ctx, query, announcement.Title, announcement.Datetime, announcement.Description, announcement.AuthorID)
	if err := row.Scan(&announcement.ID, &announcement.CreatedAt); err != nil {
		return writeError(err, "create announcement")
	}
	return nil
}

// List returns announcements ascending by event time. The future filter is evaluated by the
// database clock at query time.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementWithOrganizer, error) {
	query := announcementSelect
	if filter == models.AnnouncementFilterFutureOnly {
		query += " WHERE a.event_at >= NOW()"
	}
	query += " ORDER BY a.event_at ASC, a.created_at ASC"

	start := time.Now()
	defer func() { r.metrics.ObserveDBQuery("announcement_list", time.Since(start)) }()

	announcements := make([]models.AnnouncementWithOrganizer, 0)
	if err := r.db.SelectContext(ctx, &announcements, query); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id int64) (*models.AnnouncementWithOrganizer, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveDBQuery("announcement_get", time.Since(start)) }()

	var announcement models.AnnouncementWithOrganizer
	if err := r.db.GetContext(ctx, &announcement, announcementSelect+" WHERE a.id = $1", id); err != nil {
		return nil, err
	}
	return &announcement, nil
}
