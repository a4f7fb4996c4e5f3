package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// OrganizationsHandler serves tenant endpoints.
type OrganizationsHandler struct {
	service   *service.OrganizationService
	validator *dto.Validator
}

// NewOrganizationsHandler constructs handler.
func NewOrganizationsHandler(orgService *service.OrganizationService, validator *dto.Validator) *OrganizationsHandler {
	return &OrganizationsHandler{service: orgService, validator: validator}
}

// CreateOrganization POST /organizations.
func (h *OrganizationsHandler) CreateOrganization(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateOrganizationRequest
	if err := decodeBody(c, h.validator, &req); err != nil {
		return err
	}
	org, err := h.service.CreateOrganization(c.UserContext(), actor, service.OrganizationCreateInput{
		Name:   req.Name,
		Slug:   req.Slug,
		Status: req.Status,
		Theme:  req.Theme,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewOrganizationResponse(org)})
}

// ListOrganizations GET /organizations.
func (h *OrganizationsHandler) ListOrganizations(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.ListOrganizations(c.UserContext(), actor, page)
	if err != nil {
		return err
	}
	items := make([]dto.OrganizationResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, dto.NewOrganizationResponse(&result.Items[i]))
	}
	return listResponse(c, items, len(items), result.NextCursor)
}

// GetOrganization GET /organizations/:id.
func (h *OrganizationsHandler) GetOrganization(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	org, err := h.service.GetOrganization(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganizationResponse(org)})
}

// UpdateOrganization PATCH /organizations/:id.
func (h *OrganizationsHandler) UpdateOrganization(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	patch, err := decodePatch(c)
	if err != nil {
		return err
	}
	org, err := h.service.UpdateOrganization(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrganizationResponse(org)})
}
