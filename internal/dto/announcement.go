package dto

// CreateAnnouncementRequest is the payload of POST /announcements.
type CreateAnnouncementRequest struct {
	StudentID   int64  `json:"studentId" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required"`
	Datetime    string `json:"datetime" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// MarkReadRequest is the payload of POST /announcements/{id}/read.
type MarkReadRequest struct {
	StudentID int64 `json:"studentId" validate:"required,gt=0"`
}
