package models

import "time"

// Announcement represents a persisted party announcement.
type Announcement struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Datetime    time.Time `db:"event_at" json:"datetime"`
	Description string    `db:"description" json:"description"`
	AuthorID    int64     `db:"student_id" json:"studentId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// AnnouncementWithOrganizer is the read model joined with the author's name.
type AnnouncementWithOrganizer struct {
	Announcement
	Organizer string `db:"organizer" json:"organizer"`
}

// AnnouncementFilter selects which announcements a listing returns.
type AnnouncementFilter string

const (
	AnnouncementFilterAll        AnnouncementFilter = "all"
	AnnouncementFilterFutureOnly AnnouncementFilter = "future"
)

// ParseAnnouncementFilter maps the query value; anything but "future" lists everything.
func ParseAnnouncementFilter(raw string) AnnouncementFilter {
	if raw == string(AnnouncementFilterFutureOnly) {
		return AnnouncementFilterFutureOnly
	}
	return AnnouncementFilterAll
}
