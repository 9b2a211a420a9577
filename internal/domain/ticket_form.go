package domain

import (
	"io"
	"time"
)

// UploadedFile is a file attached to a ticket submission.
type UploadedFile interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// TicketForm is the submission representation of a ticket: scalar fields
// plus the selected reference ids of each child collection.
type TicketForm struct {
	TicketID          int       `json:"ticket_id" validate:"gte=0"`
	ChangeTitle       string    `json:"change_title" validate:"required,max=200"`
	ChangeDescription string    `json:"change_description" validate:"required"`
	RollbackStrategy  string    `json:"rollback_strategy" validate:"required"`
	AzureDevOpsNo     string    `json:"azure_devops_no" validate:"max=50"`
	EmergencyReason   string    `json:"emergency_reason"`
	Submitter         string    `json:"submitter" validate:"required,max=100"`
	StartDateTime     time.Time `json:"start_date_time" validate:"required"`
	EndDateTime       time.Time `json:"end_date_time" validate:"required,gtfield=StartDateTime"`
	ChangeType        int       `json:"change_type" validate:"gt=0"`
	IsHighRisk        bool      `json:"is_high_risk"`
	IsQAApproved      bool      `json:"is_qa_approved"`
	IsSecurityConcern bool      `json:"is_security_concern"`
	IsActive          bool      `json:"is_active"`
	DBANotes          *string   `json:"dba_notes,omitempty"`
	DownloadedPath    *string   `json:"downloaded_path,omitempty"`
	TicketFiles       *string   `json:"ticket_files,omitempty"`
	Applications      []int     `json:"applications" validate:"dive,gt=0"`
	ImpactedSystems   []int     `json:"impacted_systems" validate:"dive,gt=0"`
	Databases         []int     `json:"databases" validate:"dive,gt=0"`
	Groups            []int     `json:"groups" validate:"dive,gt=0"`
	SqlInstances      []int     `json:"sql_instances" validate:"dive,gt=0"`

	Files []UploadedFile `json:"-"`
}
