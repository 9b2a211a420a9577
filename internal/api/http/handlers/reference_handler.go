package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/change-control/internal/domain"
)

// ReferenceLists provides form lookup data.
type ReferenceLists interface {
	GetGroups(ctx context.Context) ([]domain.Group, error)
	GetSqlInstances(ctx context.Context) ([]domain.SqlInstance, error)
}

// ReferenceHandler serves lookup lists.
type ReferenceHandler struct {
	service ReferenceLists
}

func NewReferenceHandler(referenceService ReferenceLists) *ReferenceHandler {
	return &ReferenceHandler{service: referenceService}
}

// Groups GET /api/groups.
func (h *ReferenceHandler) Groups(c *fiber.Ctx) error {
	groups, err := h.service.GetGroups(c.UserContext())
	if err != nil {
		return err
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	return c.JSON(fiber.Map{"data": groups})
}

// SqlInstances GET /api/sql-instances.
func (h *ReferenceHandler) SqlInstances(c *fiber.Ctx) error {
	instances, err := h.service.GetSqlInstances(c.UserContext())
	if err != nil {
		return err
	}
	if instances == nil {
		instances = []domain.SqlInstance{}
	}
	return c.JSON(fiber.Map{"data": instances})
}
