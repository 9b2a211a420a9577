package domain

import "time"

// SubmitterDeploymentStatus is a known deployment state.
type SubmitterDeploymentStatus struct {
	SubmitterDeploymentStatusID int    `json:"submitter_deployment_status_id"`
	StatusName                  string `json:"status_name"`
	SortOrder                   int    `json:"sort_order"`
}

// SubmitterDeploymentHistory is an append-only deployment event for a ticket.
type SubmitterDeploymentHistory struct {
	SubmitterDeploymentHistoryID int                        `json:"submitter_deployment_history_id"`
	TicketID                     int                        `json:"ticket_id" validate:"gt=0"`
	SubmitterDeploymentStatusID  int                        `json:"submitter_deployment_status_id" validate:"gt=0"`
	Status                       *SubmitterDeploymentStatus `json:"status,omitempty"`
	Notes                        *string                    `json:"notes,omitempty"`
	CreatedBy                    string                     `json:"created_by" validate:"max=100"`
	CreatedAt                    time.Time                  `json:"created_at"`
}
