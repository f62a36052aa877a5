package models

import "time"

// DefaultReportDescription is stored when a disturbance report carries no description.
const DefaultReportDescription = "Ongemeld feestje gemeld"

// Report is a disturbance complaint filed by a resident.
type Report struct {
	ID          int64     `db:"id" json:"id"`
	StudentID   int64     `db:"student_id" json:"studentId"`
	Description string    `db:"description" json:"description"`
	Datetime    time.Time `db:"reported_at" json:"datetime"`
}
