package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/change-control/internal/api/dto"
	"github.com/spec-kit/change-control/internal/auth"
	"github.com/spec-kit/change-control/internal/domain"
	apperrors "github.com/spec-kit/change-control/pkg/util/errorutil"
)

// DeploymentTracker reads and appends submitter deployment history.
type DeploymentTracker interface {
	GetSubmitterDeploymentStatus(ctx context.Context) ([]domain.SubmitterDeploymentStatus, error)
	GetSubmitterDeploymentHistory(ctx context.Context, ticketID int) ([]domain.SubmitterDeploymentHistory, error)
	AddSubmitterDeploymentHistory(ctx context.Context, record *domain.SubmitterDeploymentHistory) (*domain.SubmitterDeploymentHistory, error)
}

// DeploymentsHandler manages deployment tracking endpoints.
type DeploymentsHandler struct {
	service DeploymentTracker
}

// NewDeploymentsHandler constructs handler.
func NewDeploymentsHandler(deploymentService DeploymentTracker) *DeploymentsHandler {
	return &DeploymentsHandler{service: deploymentService}
}

// Statuses GET /api/deployments/statuses.
func (h *DeploymentsHandler) Statuses(c *fiber.Ctx) error {
	statuses, err := h.service.GetSubmitterDeploymentStatus(c.UserContext())
	if err != nil {
		return err
	}
	if statuses == nil {
		statuses = []domain.SubmitterDeploymentStatus{}
	}
	return c.JSON(fiber.Map{"data": statuses})
}

// History GET /api/tickets/:id/deployments.
func (h *DeploymentsHandler) History(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	history, err := h.service.GetSubmitterDeploymentHistory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": history})
}

// AddHistory POST /api/tickets/:id/deployments.
func (h *DeploymentsHandler) AddHistory(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.AddDeploymentHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	record := &domain.SubmitterDeploymentHistory{
		TicketID:                    id,
		SubmitterDeploymentStatusID: req.SubmitterDeploymentStatusID,
		Notes:                       req.Notes,
		CreatedBy:                   req.CreatedBy,
	}
	if strings.TrimSpace(record.CreatedBy) == "" {
		if principal, ok := auth.PrincipalFromContext(c); ok {
			record.CreatedBy = principal.Username
		}
	}

	saved, err := h.service.AddSubmitterDeploymentHistory(c.UserContext(), record)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": saved})
}
