package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/change-control/internal/domain"
)

// GroupRepository reads approver groups.
type GroupRepository interface {
	GetAll(ctx context.Context) ([]domain.Group, error)
	GetByIDs(ctx context.Context, ids []int) ([]domain.Group, error)
}

// SqlInstanceRepository reads SQL instances.
type SqlInstanceRepository interface {
	GetAll(ctx context.Context) ([]domain.SqlInstance, error)
}

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository builds the repository.
func NewGroupRepository(pool *pgxpool.Pool) GroupRepository {
	return &groupRepository{pool: pool}
}

func (r *groupRepository) GetAll(ctx context.Context) ([]domain.Group, error) {
	const query = `
        SELECT group_id, group_name, email, is_active
        FROM approver_groups WHERE is_active = TRUE ORDER BY group_name`
	return r.query(ctx, query)
}

func (r *groupRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.Group, error) {
	if len(ids) == 0 {
		return []domain.Group{}, nil
	}
	const query = `
        SELECT group_id, group_name, email, is_active
        FROM approver_groups WHERE group_id = ANY($1) ORDER BY group_id`
	return r.query(ctx, query, ids)
}

func (r *groupRepository) query(ctx context.Context, query string, args ...any) ([]domain.Group, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Group{}
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.GroupID, &group.GroupName, &group.Email, &group.IsActive); err != nil {
			return nil, err
		}
		result = append(result, group)
	}
	return result, rows.Err()
}

type sqlInstanceRepository struct {
	pool *pgxpool.Pool
}

// NewSqlInstanceRepository builds the repository.
func NewSqlInstanceRepository(pool *pgxpool.Pool) SqlInstanceRepository {
	return &sqlInstanceRepository{pool: pool}
}

func (r *sqlInstanceRepository) GetAll(ctx context.Context) ([]domain.SqlInstance, error) {
	const query = `
        SELECT sql_instance_id, instance_name, environment, is_active
        FROM sql_instances WHERE is_active = TRUE ORDER BY instance_name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.SqlInstance{}
	for rows.Next() {
		var instance domain.SqlInstance
		if err := rows.Scan(&instance.SqlInstanceID, &instance.InstanceName, &instance.Environment, &instance.IsActive); err != nil {
			return nil, err
		}
		result = append(result, instance)
	}
	return result, rows.Err()
}
