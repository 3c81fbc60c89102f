package models

import (
	"time"
)

// JobStatus is the lifecycle state of a repair job.
// Any status may follow any other; there is no enforced transition graph.
type JobStatus string

const (
	StatusCheckedIn       JobStatus = "CHECKED_IN"
	StatusDiagnosing      JobStatus = "DIAGNOSING"
	StatusRepairing       JobStatus = "REPAIRING"
	StatusWaitingForParts JobStatus = "WAITING_FOR_PARTS"
	StatusReady           JobStatus = "READY"
	StatusCompleted       JobStatus = "COMPLETED"
)

// JobStatuses lists every status in lifecycle order.
var JobStatuses = []JobStatus{
	StatusCheckedIn,
	StatusDiagnosing,
	StatusRepairing,
	StatusWaitingForParts,
	StatusReady,
	StatusCompleted,
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	for _, known := range JobStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Job priorities
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
	PriorityUrgent = 4
)

// Job represents a repair work order for one customer's motorcycle
type Job struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	JobNumber             string     `gorm:"uniqueIndex;not null;size:50" json:"job_number"`
	CustomerName          string     `gorm:"not null;size:255" json:"customer_name"`
	CustomerPhone         string     `gorm:"not null;size:20;index" json:"customer_phone"`
	CustomerEmail         *string    `gorm:"size:255" json:"customer_email"`
	VehicleName           string     `gorm:"not null;size:255" json:"vehicle_name"`
	MotorcycleNumberplate string     `gorm:"not null;size:50;index" json:"motorcycle_numberplate"`
	ProblemDescription    string     `gorm:"type:text;not null" json:"problem_description"`
	DiagnosisNotes        *string    `gorm:"type:text" json:"diagnosis_notes"`
	RepairNotes           *string    `gorm:"type:text" json:"repair_notes"`
	EstimatedCost         float64    `gorm:"not null;default:0;check:estimated_cost >= 0" json:"estimated_cost"`
	ActualCost            float64    `gorm:"not null;default:0;check:actual_cost >= 0" json:"actual_cost"`
	EstimatedCompletion   *string    `gorm:"size:100" json:"estimated_completion"`
	Status                JobStatus  `gorm:"not null;size:32;index;default:'CHECKED_IN'" json:"status"`
	Priority              int        `gorm:"not null;default:1;check:priority BETWEEN 1 AND 4" json:"priority"`
	CreatedAt             time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	CompletedAt           *time.Time `json:"completed_at"`
	AssignedMechanicID    *uint      `gorm:"index" json:"assigned_mechanic_id"`
	AssignedMechanic      *User      `gorm:"foreignKey:AssignedMechanicID" json:"-"`
	CreatedByID           uint       `gorm:"not null;index" json:"created_by_id"`
	CreatedBy             User       `gorm:"foreignKey:CreatedByID" json:"-"`
	CustomerUserID        *uint      `gorm:"index" json:"customer_user_id"`
	CustomerUser          *User      `gorm:"foreignKey:CustomerUserID" json:"-"`
}

// TableName specifies the table name for the Job model
func (Job) TableName() string {
	return "jobs"
}

// JobResponse is the projection returned to API callers
type JobResponse struct {
	ID                    uint       `json:"id"`
	JobNumber             string     `json:"job_number"`
	CustomerName          string     `json:"customer_name"`
	CustomerPhone         string     `json:"customer_phone"`
	CustomerEmail         *string    `json:"customer_email"`
	VehicleName           string     `json:"vehicle_name"`
	MotorcycleNumberplate string     `json:"motorcycle_numberplate"`
	ProblemDescription    string     `json:"problem_description"`
	DiagnosisNotes        *string    `json:"diagnosis_notes"`
	RepairNotes           *string    `json:"repair_notes"`
	EstimatedCost         float64    `json:"estimated_cost"`
	ActualCost            float64    `json:"actual_cost"`
	EstimatedCompletion   *string    `json:"estimated_completion"`
	Status                JobStatus  `json:"status"`
	Priority              int        `json:"priority"`
	AssignedMechanicID    *uint      `json:"assigned_mechanic_id"`
	AssignedMechanicName  *string    `json:"assigned_mechanic_name"`
	CreatedByID           uint       `json:"created_by_id"`
	CreatedByName         string     `json:"created_by_name"`
	CustomerUserID        *uint      `json:"customer_user_id"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	CompletedAt           *time.Time `json:"completed_at"`
}

// ToResponse converts the job into its API projection.
// AssignedMechanic and CreatedBy should be preloaded for the names to be filled.
func (j Job) ToResponse() JobResponse {
	resp := JobResponse{
		ID:                    j.ID,
		JobNumber:             j.JobNumber,
		CustomerName:          j.CustomerName,
		CustomerPhone:         j.CustomerPhone,
		CustomerEmail:         j.CustomerEmail,
		VehicleName:           j.VehicleName,
		MotorcycleNumberplate: j.MotorcycleNumberplate,
		ProblemDescription:    j.ProblemDescription,
		DiagnosisNotes:        j.DiagnosisNotes,
		RepairNotes:           j.RepairNotes,
		EstimatedCost:         j.EstimatedCost,
		ActualCost:            j.ActualCost,
		EstimatedCompletion:   j.EstimatedCompletion,
		Status:                j.Status,
		Priority:              j.Priority,
		AssignedMechanicID:    j.AssignedMechanicID,
		CreatedByID:           j.CreatedByID,
		CreatedByName:         j.CreatedBy.Name,
		CustomerUserID:        j.CustomerUserID,
		CreatedAt:             j.CreatedAt,
		UpdatedAt:             j.UpdatedAt,
		CompletedAt:           j.CompletedAt,
	}
	if j.AssignedMechanic != nil {
		name := j.AssignedMechanic.Name
		resp.AssignedMechanicName = &name
	}
	return resp
}

// JobStats is the per-status count record for a requester's visible jobs
type JobStats struct {
	TotalJobs       int64 `json:"total_jobs"`
	CheckedIn       int64 `json:"checked_in"`
	Diagnosing      int64 `json:"diagnosing"`
	Repairing       int64 `json:"repairing"`
	WaitingForParts int64 `json:"waiting_for_parts"`
	Ready           int64 `json:"ready"`
	Completed       int64 `json:"completed"`
}

// Add records count jobs in the given status.
func (s *JobStats) Add(status JobStatus, count int64) {
	switch status {
	case StatusCheckedIn:
		s.CheckedIn += count
	case StatusDiagnosing:
		s.Diagnosing += count
	case StatusRepairing:
		s.Repairing += count
	case StatusWaitingForParts:
		s.WaitingForParts += count
	case StatusReady:
		s.Ready += count
	case StatusCompleted:
		s.Completed += count
	}
	s.TotalJobs += count
}

// CustomerCredentials are returned exactly once when a customer portal account is minted
type CustomerCredentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	JobNumber string `json:"job_number"`
}

// JobCreateResult is the outcome of creating a job
type JobCreateResult struct {
	Job                 JobResponse          `json:"job"`
	CustomerCredentials *CustomerCredentials `json:"customer_credentials"`
	Message             string               `json:"message"`
}
