// Package mapper converts between the ticket form and the ticket aggregate.
package mapper

import (
	"strings"

	"github.com/spec-kit/change-control/internal/domain"
)

// TicketFilesSeparator joins stored file paths in TicketFiles.
const TicketFilesSeparator = ";"

// TicketMapper maps a submission form to the aggregate and back.
type TicketMapper interface {
	ToTicket(form *domain.TicketForm) *domain.Ticket
	ToForm(ticket *domain.Ticket) *domain.TicketForm
}

type ticketMapper struct{}

// NewTicketMapper returns the field-preserving mapper.
func NewTicketMapper() TicketMapper {
	return ticketMapper{}
}

// ToTicket expands every selected id into a new join row with identity 0.
// Duplicate ids are kept.
func (ticketMapper) ToTicket(form *domain.TicketForm) *domain.Ticket {
	if form == nil {
		return nil
	}
	return &domain.Ticket{
		TicketID:          form.TicketID,
		ChangeTitle:       form.ChangeTitle,
		ChangeDescription: form.ChangeDescription,
		RollbackStrategy:  form.RollbackStrategy,
		AzureDevOpsNo:     form.AzureDevOpsNo,
		EmergencyReason:   form.EmergencyReason,
		Submitter:         form.Submitter,
		StartDateTime:     form.StartDateTime,
		EndDateTime:       form.EndDateTime,
		ChangeType:        form.ChangeType,
		IsHighRisk:        form.IsHighRisk,
		IsQAApproved:      form.IsQAApproved,
		IsSecurityConcern: form.IsSecurityConcern,
		IsActive:          form.IsActive,
		DBANotes:          form.DBANotes,
		DownloadedPath:    form.DownloadedPath,
		TicketFiles:       form.TicketFiles,
		Applications: MapSlice(form.Applications, func(id int) domain.TicketApplication {
			return domain.TicketApplication{TicketID: form.TicketID, ApplicationID: id}
		}),
		ImpactedSystems: MapSlice(form.ImpactedSystems, func(id int) domain.ImpactedSystem {
			return domain.ImpactedSystem{TicketID: form.TicketID, ApplicationID: id}
		}),
		Databases: MapSlice(form.Databases, func(id int) domain.TicketDatabase {
			return domain.TicketDatabase{TicketID: form.TicketID, DatabaseID: id}
		}),
		Groups: MapSlice(form.Groups, func(id int) domain.TicketGroup {
			return domain.TicketGroup{TicketID: form.TicketID, GroupID: id}
		}),
		SqlInstances: MapSlice(form.SqlInstances, func(id int) domain.TicketSqlInstance {
			return domain.TicketSqlInstance{TicketID: form.TicketID, SqlInstanceID: id}
		}),
	}
}

func (ticketMapper) ToForm(ticket *domain.Ticket) *domain.TicketForm {
	if ticket == nil {
		return nil
	}
	return &domain.TicketForm{
		TicketID:          ticket.TicketID,
		ChangeTitle:       ticket.ChangeTitle,
		ChangeDescription: ticket.ChangeDescription,
		RollbackStrategy:  ticket.RollbackStrategy,
		AzureDevOpsNo:     ticket.AzureDevOpsNo,
		EmergencyReason:   ticket.EmergencyReason,
		Submitter:         ticket.Submitter,
		StartDateTime:     ticket.StartDateTime,
		EndDateTime:       ticket.EndDateTime,
		ChangeType:        ticket.ChangeType,
		IsHighRisk:        ticket.IsHighRisk,
		IsQAApproved:      ticket.IsQAApproved,
		IsSecurityConcern: ticket.IsSecurityConcern,
		IsActive:          ticket.IsActive,
		DBANotes:          ticket.DBANotes,
		DownloadedPath:    ticket.DownloadedPath,
		TicketFiles:       ticket.TicketFiles,
		Applications:      MapSlice(ticket.Applications, func(a domain.TicketApplication) int { return a.ApplicationID }),
		ImpactedSystems:   MapSlice(ticket.ImpactedSystems, func(s domain.ImpactedSystem) int { return s.ApplicationID }),
		Databases:         MapSlice(ticket.Databases, func(d domain.TicketDatabase) int { return d.DatabaseID }),
		Groups:            MapSlice(ticket.Groups, func(g domain.TicketGroup) int { return g.GroupID }),
		SqlInstances:      MapSlice(ticket.SqlInstances, func(s domain.TicketSqlInstance) int { return s.SqlInstanceID }),
	}
}

// JoinTicketFiles packs stored paths into the TicketFiles column value.
func JoinTicketFiles(paths []string) *string {
	if len(paths) == 0 {
		return nil
	}
	joined := strings.Join(paths, TicketFilesSeparator)
	return &joined
}

// SplitTicketFiles unpacks a TicketFiles column value.
func SplitTicketFiles(files *string) []string {
	if files == nil || strings.TrimSpace(*files) == "" {
		return nil
	}
	return strings.Split(*files, TicketFilesSeparator)
}

// MapSlice applies mapFunc to each element. Returns nil if items is nil.
func MapSlice[T any, R any](items []T, mapFunc func(T) R) []R {
	if items == nil {
		return nil
	}
	result := make([]R, 0, len(items))
	for _, item := range items {
		result = append(result, mapFunc(item))
	}
	return result
}
