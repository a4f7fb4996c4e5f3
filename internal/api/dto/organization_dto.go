package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateOrganizationRequest payload.
type CreateOrganizationRequest struct {
	Name   string          `json:"name" validate:"required,notblank,max=200"`
	Slug   string          `json:"slug" validate:"omitempty,max=64"`
	Status string          `json:"status" validate:"omitempty,oneof=active trial"`
	Theme  json.RawMessage `json:"theme"`
}

// OrganizationResponse is the wire form of a tenant.
type OrganizationResponse struct {
	ID        string                    `json:"org_id"`
	Name      string                    `json:"name"`
	Slug      string                    `json:"slug"`
	Status    domain.OrganizationStatus `json:"status"`
	Theme     json.RawMessage           `json:"theme,omitempty"`
	CreatedBy string                    `json:"created_by,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// NewOrganizationResponse maps an organization.
func NewOrganizationResponse(org *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		Slug:      org.Slug,
		Status:    org.Status,
		Theme:     org.Theme,
		CreatedBy: org.CreatedBy,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}
