package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/change-control/internal/domain"
	apperrors "github.com/spec-kit/change-control/pkg/util/errorutil"
)

// GridFilterAll disables a grid filter.
const GridFilterAll = "all"

// TicketRepository encapsulates persistence of the ticket aggregate.
type TicketRepository interface {
	// GetByID returns nil without error when no ticket has the id.
	GetByID(ctx context.Context, id int) (*domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	// Deactivate clears is_active only. It returns pgx.ErrNoRows for an unknown id.
	Deactivate(ctx context.Context, id int) error
	GetTicketsForGrid(ctx context.Context, statusFilter, typeFilter string) ([]domain.TicketGrid, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, id int) (*domain.Ticket, error) {
	const query = `
        SELECT t.ticket_id, t.change_title, t.change_description, t.rollback_strategy, t.azure_devops_no,
               t.emergency_reason, t.submitter, t.start_date_time, t.end_date_time, t.change_type_id,
               t.is_high_risk, t.is_qa_approved, t.is_security_concern, t.is_active,
               t.dba_notes, t.downloaded_path, t.ticket_files, t.created_at, t.updated_at,
               ct.change_type_name, ct.email_template_id
        FROM tickets t
        JOIN change_types ct ON ct.change_type_id = t.change_type_id
        WHERE t.ticket_id=$1`
	var (
		ticket     domain.Ticket
		changeType domain.ChangeType
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.TicketID,
		&ticket.ChangeTitle,
		&ticket.ChangeDescription,
		&ticket.RollbackStrategy,
		&ticket.AzureDevOpsNo,
		&ticket.EmergencyReason,
		&ticket.Submitter,
		&ticket.StartDateTime,
		&ticket.EndDateTime,
		&ticket.ChangeType,
		&ticket.IsHighRisk,
		&ticket.IsQAApproved,
		&ticket.IsSecurityConcern,
		&ticket.IsActive,
		&ticket.DBANotes,
		&ticket.DownloadedPath,
		&ticket.TicketFiles,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&changeType.ChangeTypeName,
		&changeType.EmailTemplateID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	changeType.ChangeTypeID = ticket.ChangeType
	ticket.ChangeTypeRef = &changeType

	if err := r.loadChildren(ctx, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (change_title, change_description, rollback_strategy, azure_devops_no, emergency_reason,
            submitter, start_date_time, end_date_time, change_type_id, is_high_risk, is_qa_approved,
            is_security_concern, is_active, dba_notes, downloaded_path, ticket_files)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING ticket_id, created_at, updated_at`
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			ticket.ChangeTitle,
			ticket.ChangeDescription,
			ticket.RollbackStrategy,
			ticket.AzureDevOpsNo,
			ticket.EmergencyReason,
			ticket.Submitter,
			ticket.StartDateTime,
			ticket.EndDateTime,
			ticket.ChangeType,
			ticket.IsHighRisk,
			ticket.IsQAApproved,
			ticket.IsSecurityConcern,
			ticket.IsActive,
			ticket.DBANotes,
			ticket.DownloadedPath,
			ticket.TicketFiles,
		).Scan(&ticket.TicketID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
			return err
		}
		if err := insertChildren(ctx, tx, ticket); err != nil {
			return err
		}
		return loadChangeType(ctx, tx, ticket)
	})
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET change_title=$1, change_description=$2, rollback_strategy=$3, azure_devops_no=$4,
            emergency_reason=$5, submitter=$6, start_date_time=$7, end_date_time=$8, change_type_id=$9,
            is_high_risk=$10, is_qa_approved=$11, is_security_concern=$12, is_active=$13, dba_notes=$14,
            downloaded_path=$15, ticket_files=$16, updated_at=NOW()
        WHERE ticket_id=$17
        RETURNING created_at, updated_at`
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			ticket.ChangeTitle,
			ticket.ChangeDescription,
			ticket.RollbackStrategy,
			ticket.AzureDevOpsNo,
			ticket.EmergencyReason,
			ticket.Submitter,
			ticket.StartDateTime,
			ticket.EndDateTime,
			ticket.ChangeType,
			ticket.IsHighRisk,
			ticket.IsQAApproved,
			ticket.IsSecurityConcern,
			ticket.IsActive,
			ticket.DBANotes,
			ticket.DownloadedPath,
			ticket.TicketFiles,
			ticket.TicketID,
		).Scan(&ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
			return err
		}
		// children are owned by the ticket and replaced as a unit
		for _, table := range childTables {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE ticket_id=$1", ticket.TicketID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := insertChildren(ctx, tx, ticket); err != nil {
			return err
		}
		return loadChangeType(ctx, tx, ticket)
	})
}

func (r *ticketRepository) Deactivate(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tickets SET is_active=FALSE, updated_at=NOW() WHERE ticket_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetTicketsForGrid(ctx context.Context, statusFilter, typeFilter string) ([]domain.TicketGrid, error) {
	base := `SELECT t.ticket_id, t.change_title, t.submitter, ct.change_type_name, latest.status_id, s.status_name,
                    t.start_date_time, t.end_date_time, t.is_high_risk, t.is_active
             FROM tickets t
             JOIN change_types ct ON ct.change_type_id = t.change_type_id
             LEFT JOIN LATERAL (
                 SELECT h.submitter_deployment_status_id AS status_id
                 FROM submitter_deployment_history h
                 WHERE h.ticket_id = t.ticket_id
                 ORDER BY h.created_at DESC, h.submitter_deployment_history_id DESC
                 LIMIT 1
             ) latest ON TRUE
             LEFT JOIN submitter_deployment_statuses s ON s.submitter_deployment_status_id = latest.status_id`
	clauses := []string{"t.is_active = TRUE"}
	args := []any{}

	statusID, err := parseGridFilter("status", statusFilter)
	if err != nil {
		return nil, err
	}
	if statusID != nil {
		args = append(args, *statusID)
		clauses = append(clauses, fmt.Sprintf("latest.status_id=$%d", len(args)))
	}
	typeID, err := parseGridFilter("type", typeFilter)
	if err != nil {
		return nil, err
	}
	if typeID != nil {
		args = append(args, *typeID)
		clauses = append(clauses, fmt.Sprintf("t.change_type_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.start_date_time DESC, t.ticket_id DESC`,
		base, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketGrid{}
	for rows.Next() {
		var row domain.TicketGrid
		if err := rows.Scan(
			&row.TicketID,
			&row.ChangeTitle,
			&row.Submitter,
			&row.ChangeTypeName,
			&row.StatusID,
			&row.StatusName,
			&row.StartDateTime,
			&row.EndDateTime,
			&row.IsHighRisk,
			&row.IsActive,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// parseGridFilter returns nil when the filter selects everything.
func parseGridFilter(name, value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" || strings.EqualFold(value, GridFilterAll) {
		return nil, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		return nil, apperrors.NewValidationError("invalid grid filter", map[string]any{name: value})
	}
	return &id, nil
}

func (r *ticketRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

var childTables = []string{
	"ticket_applications",
	"ticket_impacted_systems",
	"ticket_databases",
	"ticket_groups",
	"ticket_sql_instances",
}

func insertChildren(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	for i := range ticket.Applications {
		row := &ticket.Applications[i]
		row.TicketID = ticket.TicketID
		if err := tx.QueryRow(ctx,
			`INSERT INTO ticket_applications (ticket_id, application_id) VALUES ($1,$2) RETURNING ticket_application_id`,
			row.TicketID, row.ApplicationID,
		).Scan(&row.TicketApplicationID); err != nil {
			return fmt.Errorf("insert ticket application: %w", err)
		}
	}
	for i := range ticket.ImpactedSystems {
		row := &ticket.ImpactedSystems[i]
		row.TicketID = ticket.TicketID
		if err := tx.QueryRow(ctx,
			`INSERT INTO ticket_impacted_systems (ticket_id, application_id) VALUES ($1,$2) RETURNING impacted_system_id`,
			row.TicketID, row.ApplicationID,
		).Scan(&row.ImpactedSystemID); err != nil {
			return fmt.Errorf("insert impacted system: %w", err)
		}
	}
	for i := range ticket.Databases {
		row := &ticket.Databases[i]
		row.TicketID = ticket.TicketID
		if err := tx.QueryRow(ctx,
			`INSERT INTO ticket_databases (ticket_id, database_id) VALUES ($1,$2) RETURNING ticket_database_id`,
			row.TicketID, row.DatabaseID,
		).Scan(&row.TicketDatabaseID); err != nil {
			return fmt.Errorf("insert ticket database: %w", err)
		}
	}
	for i := range ticket.Groups {
		row := &ticket.Groups[i]
		row.TicketID = ticket.TicketID
		if err := tx.QueryRow(ctx,
			`INSERT INTO ticket_groups (ticket_id, group_id) VALUES ($1,$2) RETURNING ticket_group_id`,
			row.TicketID, row.GroupID,
		).Scan(&row.TicketGroupID); err != nil {
			return fmt.Errorf("insert ticket group: %w", err)
		}
	}
	for i := range ticket.SqlInstances {
		row := &ticket.SqlInstances[i]
		row.TicketID = ticket.TicketID
		if err := tx.QueryRow(ctx,
			`INSERT INTO ticket_sql_instances (ticket_id, sql_instance_id) VALUES ($1,$2) RETURNING ticket_sql_instance_id`,
			row.TicketID, row.SqlInstanceID,
		).Scan(&row.TicketSqlInstanceID); err != nil {
			return fmt.Errorf("insert ticket sql instance: %w", err)
		}
	}
	return nil
}

func loadChangeType(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	changeType := domain.ChangeType{ChangeTypeID: ticket.ChangeType}
	if err := tx.QueryRow(ctx,
		`SELECT change_type_name, email_template_id FROM change_types WHERE change_type_id=$1`,
		ticket.ChangeType,
	).Scan(&changeType.ChangeTypeName, &changeType.EmailTemplateID); err != nil {
		return fmt.Errorf("load change type: %w", err)
	}
	ticket.ChangeTypeRef = &changeType
	return nil
}

func (r *ticketRepository) loadChildren(ctx context.Context, ticket *domain.Ticket) error {
	id := ticket.TicketID
	if err := queryPairs(ctx, r.pool,
		`SELECT ticket_application_id, application_id FROM ticket_applications WHERE ticket_id=$1 ORDER BY ticket_application_id`,
		id, func(rowID, refID int) {
			ticket.Applications = append(ticket.Applications, domain.TicketApplication{TicketApplicationID: rowID, TicketID: id, ApplicationID: refID})
		}); err != nil {
		return err
	}
	if err := queryPairs(ctx, r.pool,
		`SELECT impacted_system_id, application_id FROM ticket_impacted_systems WHERE ticket_id=$1 ORDER BY impacted_system_id`,
		id, func(rowID, refID int) {
			ticket.ImpactedSystems = append(ticket.ImpactedSystems, domain.ImpactedSystem{ImpactedSystemID: rowID, TicketID: id, ApplicationID: refID})
		}); err != nil {
		return err
	}
	if err := queryPairs(ctx, r.pool,
		`SELECT ticket_database_id, database_id FROM ticket_databases WHERE ticket_id=$1 ORDER BY ticket_database_id`,
		id, func(rowID, refID int) {
			ticket.Databases = append(ticket.Databases, domain.TicketDatabase{TicketDatabaseID: rowID, TicketID: id, DatabaseID: refID})
		}); err != nil {
		return err
	}
	if err := queryPairs(ctx, r.pool,
		`SELECT ticket_group_id, group_id FROM ticket_groups WHERE ticket_id=$1 ORDER BY ticket_group_id`,
		id, func(rowID, refID int) {
			ticket.Groups = append(ticket.Groups, domain.TicketGroup{TicketGroupID: rowID, TicketID: id, GroupID: refID})
		}); err != nil {
		return err
	}
	return queryPairs(ctx, r.pool,
		`SELECT ticket_sql_instance_id, sql_instance_id FROM ticket_sql_instances WHERE ticket_id=$1 ORDER BY ticket_sql_instance_id`,
		id, func(rowID, refID int) {
			ticket.SqlInstances = append(ticket.SqlInstances, domain.TicketSqlInstance{TicketSqlInstanceID: rowID, TicketID: id, SqlInstanceID: refID})
		})
}

// queryPairs scans (row id, referenced id) pairs of a child table.
func queryPairs(ctx context.Context, pool *pgxpool.Pool, query string, ticketID int, add func(rowID, refID int)) error {
	rows, err := pool.Query(ctx, query, ticketID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rowID, refID int
		if err := rows.Scan(&rowID, &refID); err != nil {
			return err
		}
		add(rowID, refID)
	}
	return rows.Err()
}
