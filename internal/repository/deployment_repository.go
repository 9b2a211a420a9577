package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/change-control/internal/domain"
	apperrors "github.com/spec-kit/change-control/pkg/util/errorutil"
)

const pgForeignKeyViolation = "23503"

// DeploymentStatusRepository reads the deployment status lookup.
type DeploymentStatusRepository interface {
	GetAll(ctx context.Context) ([]domain.SubmitterDeploymentStatus, error)
}

// DeploymentHistoryRepository stores deployment history entries.
type DeploymentHistoryRepository interface {
	GetAll(ctx context.Context) ([]domain.SubmitterDeploymentHistory, error)
	Create(ctx context.Context, history *domain.SubmitterDeploymentHistory) error
}

type deploymentStatusRepository struct {
	pool *pgxpool.Pool
}

// NewDeploymentStatusRepository builds repository.
func NewDeploymentStatusRepository(pool *pgxpool.Pool) DeploymentStatusRepository {
	return &deploymentStatusRepository{pool: pool}
}

func (r *deploymentStatusRepository) GetAll(ctx context.Context) ([]domain.SubmitterDeploymentStatus, error) {
	const query = `
        SELECT submitter_deployment_status_id, status_name, sort_order
        FROM submitter_deployment_statuses ORDER BY sort_order, submitter_deployment_status_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.SubmitterDeploymentStatus{}
	for rows.Next() {
		var status domain.SubmitterDeploymentStatus
		if err := rows.Scan(&status.SubmitterDeploymentStatusID, &status.StatusName, &status.SortOrder); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

type deploymentHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewDeploymentHistoryRepository builds repository.
func NewDeploymentHistoryRepository(pool *pgxpool.Pool) DeploymentHistoryRepository {
	return &deploymentHistoryRepository{pool: pool}
}

// Create inserts the entry and writes the assigned id and timestamp back into it.
func (r *deploymentHistoryRepository) Create(ctx context.Context, history *domain.SubmitterDeploymentHistory) error {
	const query = `
        INSERT INTO submitter_deployment_history (ticket_id, submitter_deployment_status_id, notes, created_by)
        VALUES ($1,$2,$3,$4)
        RETURNING submitter_deployment_history_id, created_at`
	err := r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.SubmitterDeploymentStatusID,
		history.Notes,
		history.CreatedBy,
	).Scan(&history.SubmitterDeploymentHistoryID, &history.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return apperrors.NewNotFound("referenced ticket or deployment status", map[string]any{
			"ticket_id":                      history.TicketID,
			"submitter_deployment_status_id": history.SubmitterDeploymentStatusID,
			"constraint":                     pgErr.ConstraintName,
		})
	}
	return err
}

func (r *deploymentHistoryRepository) GetAll(ctx context.Context) ([]domain.SubmitterDeploymentHistory, error) {
	const query = `
        SELECT h.submitter_deployment_history_id, h.ticket_id, h.submitter_deployment_status_id,
               s.status_name, s.sort_order, h.notes, h.created_by, h.created_at
        FROM submitter_deployment_history h
        JOIN submitter_deployment_statuses s ON s.submitter_deployment_status_id = h.submitter_deployment_status_id
        ORDER BY h.created_at ASC, h.submitter_deployment_history_id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.SubmitterDeploymentHistory{}
	for rows.Next() {
		var (
			history domain.SubmitterDeploymentHistory
			status  domain.SubmitterDeploymentStatus
		)
		if err := rows.Scan(
			&history.SubmitterDeploymentHistoryID,
			&history.TicketID,
			&history.SubmitterDeploymentStatusID,
			&status.StatusName,
			&status.SortOrder,
			&history.Notes,
			&history.CreatedBy,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		status.SubmitterDeploymentStatusID = history.SubmitterDeploymentStatusID
		history.Status = &status
		result = append(result, history)
	}
	return result, rows.Err()
}
