package domain

import "time"

// ChangeType categorizes a ticket and selects the approval email template.
type ChangeType struct {
	ChangeTypeID    int
	ChangeTypeName  string
	EmailTemplateID int
}

// Ticket is the aggregate for a proposed production change.
type Ticket struct {
	TicketID          int
	ChangeTitle       string
	ChangeDescription string
	RollbackStrategy  string
	AzureDevOpsNo     string
	EmergencyReason   string
	Submitter         string
	StartDateTime     time.Time
	EndDateTime       time.Time
	ChangeType        int
	ChangeTypeRef     *ChangeType
	IsHighRisk        bool
	IsQAApproved      bool
	IsSecurityConcern bool
	IsActive          bool
	DBANotes          *string
	DownloadedPath    *string
	TicketFiles       *string
	Applications      []TicketApplication
	ImpactedSystems   []ImpactedSystem
	Databases         []TicketDatabase
	Groups            []TicketGroup
	SqlInstances      []TicketSqlInstance
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsNew reports whether the ticket has not been persisted yet.
func (t *Ticket) IsNew() bool {
	return t.TicketID == 0
}

// TicketApplication links a ticket to an application being changed.
type TicketApplication struct {
	TicketApplicationID int
	TicketID            int
	ApplicationID       int
}

// ImpactedSystem links a ticket to an application affected by the change.
type ImpactedSystem struct {
	ImpactedSystemID int
	TicketID         int
	ApplicationID    int
}

// TicketDatabase links a ticket to a database.
type TicketDatabase struct {
	TicketDatabaseID int
	TicketID         int
	DatabaseID       int
}

// TicketGroup links a ticket to an approver group.
type TicketGroup struct {
	TicketGroupID int
	TicketID      int
	GroupID       int
}

// TicketSqlInstance links a ticket to a SQL instance.
type TicketSqlInstance struct {
	TicketSqlInstanceID int
	TicketID            int
	SqlInstanceID       int
}

// TicketGrid is a read-only row of the ticket grid projection.
type TicketGrid struct {
	TicketID       int       `json:"ticket_id"`
	ChangeTitle    string    `json:"change_title"`
	Submitter      string    `json:"submitter"`
	ChangeTypeName string    `json:"change_type_name"`
	StatusID       *int      `json:"status_id"`
	StatusName     *string   `json:"status_name"`
	StartDateTime  time.Time `json:"start_date_time"`
	EndDateTime    time.Time `json:"end_date_time"`
	IsHighRisk     bool      `json:"is_high_risk"`
	IsActive       bool      `json:"is_active"`
}
