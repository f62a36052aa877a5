package dto

// CreateReportRequest is the payload of POST /reports. Description is optional.
type CreateReportRequest struct {
	StudentID   int64  `json:"studentId" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=255"`
}
