package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/spec-kit/change-control/internal/domain"
	"github.com/spec-kit/change-control/internal/events"
	"github.com/spec-kit/change-control/internal/repository"
	apperrors "github.com/spec-kit/change-control/pkg/util/errorutil"
)

// DeploymentService tracks submitter deployment progress of tickets.
type DeploymentService struct {
	statuses   repository.DeploymentStatusRepository
	history    repository.DeploymentHistoryRepository
	dispatcher events.Dispatcher
	validator  *validator.Validate
}

// DeploymentDependencies bundles collaborators for the deployment service.
type DeploymentDependencies struct {
	StatusRepo  repository.DeploymentStatusRepository
	HistoryRepo repository.DeploymentHistoryRepository
	Dispatcher  events.Dispatcher
	Validator   *validator.Validate
}

// NewDeploymentService constructs the service.
func NewDeploymentService(deps DeploymentDependencies) *DeploymentService {
	v := deps.Validator
	if v == nil {
		v = NewValidator()
	}
	return &DeploymentService{
		statuses:   deps.StatusRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		validator:  v,
	}
}

// GetSubmitterDeploymentStatus lists every known deployment status.
func (s *DeploymentService) GetSubmitterDeploymentStatus(ctx context.Context) ([]domain.SubmitterDeploymentStatus, error) {
	return s.statuses.GetAll(ctx)
}

// GetSubmitterDeploymentHistory returns the history records of one ticket in store order.
func (s *DeploymentService) GetSubmitterDeploymentHistory(ctx context.Context, ticketID int) ([]domain.SubmitterDeploymentHistory, error) {
	all, err := s.history.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.SubmitterDeploymentHistory, 0)
	for _, record := range all {
		if record.TicketID == ticketID {
			result = append(result, record)
		}
	}
	return result, nil
}

// AddSubmitterDeploymentHistory persists record and returns the same instance.
// Identity and timestamp are populated by the store.
func (s *DeploymentService) AddSubmitterDeploymentHistory(ctx context.Context, record *domain.SubmitterDeploymentHistory) (*domain.SubmitterDeploymentHistory, error) {
	if record == nil {
		return nil, apperrors.NewArgumentNull("record")
	}
	record.CreatedBy = strings.TrimSpace(record.CreatedBy)
	if err := validateStruct(s.validator, record); err != nil {
		return nil, err
	}

	if err := s.history.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventDeploymentRecorded,
			TicketID:  record.TicketID,
			Actor:     events.Actor{Username: record.CreatedBy},
			Timestamp: time.Now(),
			Payload: events.DeploymentRecordedPayload{
				HistoryID: record.SubmitterDeploymentHistoryID,
				StatusID:  record.SubmitterDeploymentStatusID,
				Notes:     record.Notes,
			},
		})
	}
	return record, nil
}
