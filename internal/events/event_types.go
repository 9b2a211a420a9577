package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted    EventType = "ticket_submitted"
	EventTicketRemoved      EventType = "ticket_removed"
	EventDeploymentRecorded EventType = "deployment_recorded"
)

// Actor identifies who triggered an event.
type Actor struct {
	Username string `json:"username"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int         `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	IsNew           bool      `json:"is_new"`
	ChangeTitle     string    `json:"change_title"`
	ChangeTypeName  string    `json:"change_type_name"`
	EmailTemplateID int       `json:"email_template_id"`
	GroupIDs        []int     `json:"group_ids"`
	StartDateTime   time.Time `json:"start_date_time"`
	EndDateTime     time.Time `json:"end_date_time"`
	IsHighRisk      bool      `json:"is_high_risk"`
	DownloadedPath  *string   `json:"downloaded_path,omitempty"`
}

// TicketRemovedPayload payload.
type TicketRemovedPayload struct {
	ChangeTitle string `json:"change_title"`
}

// DeploymentRecordedPayload payload.
type DeploymentRecordedPayload struct {
	HistoryID int     `json:"history_id"`
	StatusID  int     `json:"status_id"`
	Notes     *string `json:"notes,omitempty"`
}
