package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/change-control/internal/api/dto"
	"github.com/spec-kit/change-control/internal/auth"
	"github.com/spec-kit/change-control/internal/domain"
	"github.com/spec-kit/change-control/internal/mapper"
	apperrors "github.com/spec-kit/change-control/pkg/util/errorutil"
)

const (
	ticketFormField = "ticket"
	filesFormField  = "files"
)

// TicketWorkflow is the ticket submission and removal workflow.
type TicketWorkflow interface {
	SubmitTicket(ctx context.Context, form *domain.TicketForm) (*domain.TicketForm, error)
	RemoveTicket(ctx context.Context, ticketID int) (*domain.Ticket, error)
	GetTicketsForGrid(ctx context.Context, statusFilter, typeFilter string) ([]domain.TicketGrid, error)
}

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service TicketWorkflow
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService TicketWorkflow) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// SubmitTicket POST /api/tickets.
// Accepts a JSON body, or a multipart form with the ticket JSON in the
// "ticket" field and attachments in "files".
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	form, err := parseTicketForm(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(form.Submitter) == "" {
		if principal, ok := auth.PrincipalFromContext(c); ok {
			form.Submitter = principal.Username
		}
	}

	isNew := form.TicketID == 0
	result, err := h.service.SubmitTicket(c.UserContext(), form)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if isNew {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": result})
}

// RemoveTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) RemoveTicket(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.RemoveTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Grid GET /api/tickets/grid.
func (h *TicketsHandler) Grid(c *fiber.Ctx) error {
	var query dto.GridQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	rows, err := h.service.GetTicketsForGrid(c.UserContext(), query.Status, query.Type)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []domain.TicketGrid{}
	}
	return c.JSON(fiber.Map{"data": rows})
}

func parseTicketForm(c *fiber.Ctx) (*domain.TicketForm, error) {
	var form domain.TicketForm
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(&form); err != nil {
			return nil, apperrors.NewValidationError("invalid payload", nil)
		}
		return &form, nil
	}

	multipartForm, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart payload", nil)
	}
	values := multipartForm.Value[ticketFormField]
	if len(values) == 0 {
		return nil, apperrors.NewValidationError("missing ticket field", map[string]any{"field": ticketFormField})
	}
	if err := c.App().Config().JSONDecoder([]byte(values[0]), &form); err != nil {
		return nil, apperrors.NewValidationError("invalid ticket field", map[string]any{"field": ticketFormField})
	}
	for _, header := range multipartForm.File[filesFormField] {
		form.Files = append(form.Files, multipartFile{header: header})
	}
	return &form, nil
}

func ticketIDParam(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

// multipartFile adapts an uploaded form file to domain.UploadedFile.
type multipartFile struct {
	header *multipart.FileHeader
}

func (f multipartFile) Name() string { return f.header.Filename }

func (f multipartFile) Open() (io.ReadCloser, error) { return f.header.Open() }

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	form := mapper.NewTicketMapper().ToForm(ticket)
	resp := dto.TicketResponse{
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
		TicketFiles:       mapper.SplitTicketFiles(ticket.TicketFiles),
		Applications:      form.Applications,
		ImpactedSystems:   form.ImpactedSystems,
		Databases:         form.Databases,
		Groups:            form.Groups,
		SqlInstances:      form.SqlInstances,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
	}
	if ticket.ChangeTypeRef != nil {
		resp.ChangeTypeName = ticket.ChangeTypeRef.ChangeTypeName
	}
	return resp
}
