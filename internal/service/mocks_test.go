package service

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/spec-kit/change-control/internal/domain"
	"github.com/spec-kit/change-control/internal/events"
	"github.com/spec-kit/change-control/internal/mail"
)

type mockTicketRepository struct {
	GetByIDFunc           func(ctx context.Context, id int) (*domain.Ticket, error)
	CreateFunc            func(ctx context.Context, ticket *domain.Ticket) error
	UpdateFunc            func(ctx context.Context, ticket *domain.Ticket) error
	DeactivateFunc        func(ctx context.Context, id int) error
	GetTicketsForGridFunc func(ctx context.Context, statusFilter, typeFilter string) ([]domain.TicketGrid, error)

	createCalls int
	updateCalls int
	updated     []domain.Ticket
	deactivated []int
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id int) (*domain.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	m.createCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	m.updateCalls++
	m.updated = append(m.updated, *ticket)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepository) Deactivate(ctx context.Context, id int) error {
	m.deactivated = append(m.deactivated, id)
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *mockTicketRepository) GetTicketsForGrid(ctx context.Context, statusFilter, typeFilter string) ([]domain.TicketGrid, error) {
	if m.GetTicketsForGridFunc != nil {
		return m.GetTicketsForGridFunc(ctx, statusFilter, typeFilter)
	}
	return nil, nil
}

type mockStatusRepository struct {
	GetAllFunc func(ctx context.Context) ([]domain.SubmitterDeploymentStatus, error)
}

func (m *mockStatusRepository) GetAll(ctx context.Context) ([]domain.SubmitterDeploymentStatus, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

type mockHistoryRepository struct {
	GetAllFunc func(ctx context.Context) ([]domain.SubmitterDeploymentHistory, error)
	CreateFunc func(ctx context.Context, history *domain.SubmitterDeploymentHistory) error

	createCalls int
}

func (m *mockHistoryRepository) GetAll(ctx context.Context) ([]domain.SubmitterDeploymentHistory, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockHistoryRepository) Create(ctx context.Context, history *domain.SubmitterDeploymentHistory) error {
	m.createCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, history)
	}
	return nil
}

type mockGroupRepository struct {
	GetAllFunc   func(ctx context.Context) ([]domain.Group, error)
	GetByIDsFunc func(ctx context.Context, ids []int) ([]domain.Group, error)
}

func (m *mockGroupRepository) GetAll(ctx context.Context) ([]domain.Group, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockGroupRepository) GetByIDs(ctx context.Context, ids []int) ([]domain.Group, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return nil, nil
}

type mockSqlInstanceRepository struct {
	GetAllFunc func(ctx context.Context) ([]domain.SqlInstance, error)
}

func (m *mockSqlInstanceRepository) GetAll(ctx context.Context) ([]domain.SqlInstance, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

type mockFileStore struct {
	SaveFunc func(ctx context.Context, folder string, file domain.UploadedFile) (string, error)

	folders []string
}

func (m *mockFileStore) Save(ctx context.Context, folder string, file domain.UploadedFile) (string, error) {
	m.folders = append(m.folders, folder)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, folder, file)
	}
	return folder + "/" + file.Name(), nil
}

type mockDispatcher struct {
	PublishFunc func(ctx context.Context, event events.Event) error

	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func (m *mockDispatcher) Publish(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

func (m *mockDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = map[events.EventType][]events.EventHandler{}
	}
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

func (m *mockDispatcher) publishedEvents() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.published...)
}

type mockMailer struct {
	SendFunc func(ctx context.Context, msg mail.Message) error

	sent []mail.Message
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil
}

type memoryFile struct {
	name    string
	content string
}

func (f memoryFile) Name() string { return f.name }

func (f memoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.content)), nil
}
