package models

import (
	"time"
)

// JobStatusChange records one status change on a job
type JobStatusChange struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	JobID       uint      `gorm:"not null;index" json:"job_id"`
	Job         Job       `gorm:"foreignKey:JobID" json:"-"`
	ChangedByID uint      `gorm:"not null;index" json:"changed_by_id"`
	ChangedBy   User      `gorm:"foreignKey:ChangedByID" json:"-"`
	FromStatus  JobStatus `gorm:"size:32;not null" json:"from_status"`
	ToStatus    JobStatus `gorm:"size:32;not null" json:"to_status"`
	Notes       *string   `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the JobStatusChange model
func (JobStatusChange) TableName() string {
	return "job_status_changes"
}

// JobPhoto is a picture of the vehicle attached to a job
type JobPhoto struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	JobID        uint      `gorm:"not null;index" json:"job_id"`
	Job          Job       `gorm:"foreignKey:JobID" json:"-"`
	S3Key        string    `gorm:"not null;uniqueIndex" json:"s3_key"`
	URL          string    `gorm:"-" json:"url,omitempty"` // presigned, computed per request
	UploadedByID uint      `gorm:"not null;index" json:"uploaded_by_id"`
	UploadedBy   User      `gorm:"foreignKey:UploadedByID" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for the JobPhoto model
func (JobPhoto) TableName() string {
	return "job_photos"
}
