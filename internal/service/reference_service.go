package service

import (
	"context"

	"github.com/spec-kit/change-control/internal/domain"
	"github.com/spec-kit/change-control/internal/repository"
)

// ReferenceService exposes the lookup lists used when filling a ticket form.
type ReferenceService struct {
	groups       repository.GroupRepository
	sqlInstances repository.SqlInstanceRepository
}

// NewReferenceService constructs the service.
func NewReferenceService(groups repository.GroupRepository, sqlInstances repository.SqlInstanceRepository) *ReferenceService {
	return &ReferenceService{groups: groups, sqlInstances: sqlInstances}
}

func (s *ReferenceService) GetGroups(ctx context.Context) ([]domain.Group, error) {
	return s.groups.GetAll(ctx)
}

func (s *ReferenceService) GetSqlInstances(ctx context.Context) ([]domain.SqlInstance, error) {
	return s.sqlInstances.GetAll(ctx)
}
