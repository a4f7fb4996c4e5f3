package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// UsersHandler serves user directory endpoints.
type UsersHandler struct {
	service   *service.UserService
	validator *dto.Validator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, validator *dto.Validator) *UsersHandler {
	return &UsersHandler{service: userService, validator: validator}
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	profile, err := h.service.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := dto.MeResponse{
		User:        dto.NewUserResponse(&profile.User),
		Permissions: profile.Permissions,
	}
	if profile.Organization != nil {
		org := dto.NewOrganizationResponse(profile.Organization)
		resp.Organization = &org
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.ListUsers(c.UserContext(), actor, service.UserListFilter{
		OrgID: c.Query("org_id"),
		Role:  c.Query("role"),
		Page:  page,
	})
	if err != nil {
		return err
	}
	items := dto.NewUserResponses(result.Items)
	return listResponse(c, items, len(items), result.NextCursor)
}

// ListTechnicians GET /users/technicians.
func (h *UsersHandler) ListTechnicians(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListTechnicians(c.UserContext(), actor, c.Query("org_id"))
	if err != nil {
		return err
	}
	items := dto.NewUserResponses(users)
	return listResponse(c, items, len(items), "")
}

// UpdateRole PUT /users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := decodeBody(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateUserRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
