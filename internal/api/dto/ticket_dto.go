package dto

import (
	"time"
)

// TicketResponse is the full ticket aggregate as returned by removal.
type TicketResponse struct {
	TicketID          int       `json:"ticket_id"`
	ChangeTitle       string    `json:"change_title"`
	ChangeDescription string    `json:"change_description"`
	RollbackStrategy  string    `json:"rollback_strategy"`
	AzureDevOpsNo     string    `json:"azure_devops_no"`
	EmergencyReason   string    `json:"emergency_reason"`
	Submitter         string    `json:"submitter"`
	StartDateTime     time.Time `json:"start_date_time"`
	EndDateTime       time.Time `json:"end_date_time"`
	ChangeType        int       `json:"change_type"`
	ChangeTypeName    string    `json:"change_type_name,omitempty"`
	IsHighRisk        bool      `json:"is_high_risk"`
	IsQAApproved      bool      `json:"is_qa_approved"`
	IsSecurityConcern bool      `json:"is_security_concern"`
	IsActive          bool      `json:"is_active"`
	DBANotes          *string   `json:"dba_notes"`
	DownloadedPath    *string   `json:"downloaded_path"`
	TicketFiles       []string  `json:"ticket_files"`
	Applications      []int     `json:"applications"`
	ImpactedSystems   []int     `json:"impacted_systems"`
	Databases         []int     `json:"databases"`
	Groups            []int     `json:"groups"`
	SqlInstances      []int     `json:"sql_instances"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GridQuery captures the grid filters. Empty, "0" and "all" select everything.
type GridQuery struct {
	Status string `query:"status"`
	Type   string `query:"type"`
}

// AddDeploymentHistoryRequest payload.
type AddDeploymentHistoryRequest struct {
	SubmitterDeploymentStatusID int     `json:"submitter_deployment_status_id"`
	Notes                       *string `json:"notes"`
	CreatedBy                   string  `json:"created_by"`
}
