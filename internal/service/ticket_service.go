package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/change-control/internal/config"
	"github.com/spec-kit/change-control/internal/domain"
	"github.com/spec-kit/change-control/internal/events"
	"github.com/spec-kit/change-control/internal/mapper"
	"github.com/spec-kit/change-control/internal/repository"
	"github.com/spec-kit/change-control/internal/storage"
	apperrors "github.com/spec-kit/change-control/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	mapper     mapper.TicketMapper
	files      storage.FileStore
	dispatcher events.Dispatcher
	validator  *validator.Validate
	storage    config.StorageConfig
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Mapper     mapper.TicketMapper
	FileStore  storage.FileStore
	Dispatcher events.Dispatcher
	Validator  *validator.Validate
	Storage    config.StorageConfig
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := deps.Validator
	if v == nil {
		v = NewValidator()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		mapper:     deps.Mapper,
		files:      deps.FileStore,
		dispatcher: deps.Dispatcher,
		validator:  v,
		storage:    deps.Storage,
		logger:     logger,
	}
}

// SubmitTicket creates a new ticket or updates an existing one and returns the
// stored state in form representation.
func (s *TicketService) SubmitTicket(ctx context.Context, form *domain.TicketForm) (*domain.TicketForm, error) {
	if form == nil {
		return nil, apperrors.NewArgumentNull("form")
	}

	normalizeForm(form)
	if err := validateStruct(s.validator, form); err != nil {
		return nil, err
	}

	if form.TicketID > 0 {
		stored, found, err := s.lookupTicket(ctx, form.TicketID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, apperrors.NewTicketNotFound(form.TicketID)
		}
		if !stored.IsActive {
			return nil, apperrors.NewTicketInactive(form.TicketID)
		}
	}

	if err := s.storeFiles(ctx, form); err != nil {
		return nil, err
	}

	ticket := s.mapper.ToTicket(form)
	// Submission never deactivates; RemoveTicket does.
	ticket.IsActive = true
	isNew := ticket.IsNew()
	if isNew {
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return nil, err
		}
	} else {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
	}

	result := s.mapper.ToForm(ticket)

	payload := events.TicketSubmittedPayload{
		IsNew:          isNew,
		ChangeTitle:    ticket.ChangeTitle,
		GroupIDs:       result.Groups,
		StartDateTime:  ticket.StartDateTime,
		EndDateTime:    ticket.EndDateTime,
		IsHighRisk:     ticket.IsHighRisk,
		DownloadedPath: ticket.DownloadedPath,
	}
	if ticket.ChangeTypeRef != nil {
		payload.ChangeTypeName = ticket.ChangeTypeRef.ChangeTypeName
		payload.EmailTemplateID = ticket.ChangeTypeRef.EmailTemplateID
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketSubmitted,
		TicketID: ticket.TicketID,
		Actor:    events.Actor{Username: ticket.Submitter},
		Payload:  payload,
	})

	return result, nil
}

// RemoveTicket deactivates a ticket and returns it as it was before deactivation.
func (s *TicketService) RemoveTicket(ctx context.Context, ticketID int) (*domain.Ticket, error) {
	ticket, found, err := s.lookupTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewTicketNotFound(ticketID)
	}

	snapshot := snapshotTicket(ticket)
	if err := s.tickets.Deactivate(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewTicketNotFound(ticketID)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketRemoved,
		TicketID: ticketID,
		Actor:    events.Actor{Username: snapshot.Submitter},
		Payload:  events.TicketRemovedPayload{ChangeTitle: snapshot.ChangeTitle},
	})
	return snapshot, nil
}

// GetTicketsForGrid returns the grid projection for the given filters.
func (s *TicketService) GetTicketsForGrid(ctx context.Context, statusFilter, typeFilter string) ([]domain.TicketGrid, error) {
	return s.tickets.GetTicketsForGrid(ctx, statusFilter, typeFilter)
}

// lookupTicket separates "absent" from store failures.
func (s *TicketService) lookupTicket(ctx context.Context, ticketID int) (*domain.Ticket, bool, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if apperrors.HasCode(err, "NOT_FOUND") {
			return nil, false, nil
		}
		return nil, false, err
	}
	if ticket == nil {
		return nil, false, nil
	}
	return ticket, true, nil
}

// storeFiles copies attachments and records their locations on the form.
func (s *TicketService) storeFiles(ctx context.Context, form *domain.TicketForm) error {
	if len(form.Files) == 0 {
		return nil
	}
	if s.files == nil {
		return apperrors.NewStorageError(errors.New("file storage not configured"))
	}

	folder := storage.TicketFolder(form.TicketID, form.ChangeTitle, form.StartDateTime, uuid.NewString())
	paths := make([]string, 0, len(form.Files))
	for _, file := range storage.DistinctNames(form.Files) {
		stored, err := s.files.Save(ctx, folder, file)
		if err != nil {
			s.logger.Error("storing ticket file failed",
				zap.Int("ticket_id", form.TicketID),
				zap.String("file", file.Name()),
				zap.Error(err))
			return apperrors.NewStorageError(err)
		}
		paths = append(paths, stored)
	}
	if len(paths) == 0 {
		return nil
	}

	existing := mapper.SplitTicketFiles(form.TicketFiles)
	form.TicketFiles = mapper.JoinTicketFiles(mergePaths(existing, paths))
	download := storage.DownloadPath(s.storage.DownloadLocation, folder)
	form.DownloadedPath = &download
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizeForm(form *domain.TicketForm) {
	form.ChangeTitle = strings.TrimSpace(form.ChangeTitle)
	form.ChangeDescription = strings.TrimSpace(form.ChangeDescription)
	form.RollbackStrategy = strings.TrimSpace(form.RollbackStrategy)
	form.AzureDevOpsNo = strings.TrimSpace(form.AzureDevOpsNo)
	form.EmergencyReason = strings.TrimSpace(form.EmergencyReason)
	form.Submitter = strings.TrimSpace(form.Submitter)
	form.DBANotes = trimOptional(form.DBANotes)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// mergePaths appends added to existing, skipping paths already present.
func mergePaths(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	merged := make([]string, 0, len(existing)+len(added))
	for _, p := range append(existing, added...) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		merged = append(merged, p)
	}
	return merged
}

// snapshotTicket copies the ticket including its child collections.
func snapshotTicket(ticket *domain.Ticket) *domain.Ticket {
	snapshot := *ticket
	snapshot.Applications = append([]domain.TicketApplication(nil), ticket.Applications...)
	snapshot.ImpactedSystems = append([]domain.ImpactedSystem(nil), ticket.ImpactedSystems...)
	snapshot.Databases = append([]domain.TicketDatabase(nil), ticket.Databases...)
	snapshot.Groups = append([]domain.TicketGroup(nil), ticket.Groups...)
	snapshot.SqlInstances = append([]domain.TicketSqlInstance(nil), ticket.SqlInstances...)
	if ticket.ChangeTypeRef != nil {
		ref := *ticket.ChangeTypeRef
		snapshot.ChangeTypeRef = &ref
	}
	return &snapshot
}
