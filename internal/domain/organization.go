package domain

import (
	"encoding/json"
	"time"
)

// OrganizationStatus enumerates tenant lifecycle states.
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
	OrganizationStatusTrial     OrganizationStatus = "trial"
)

// Valid reports whether the status is part of the vocabulary.
func (s OrganizationStatus) Valid() bool {
	switch s {
	case OrganizationStatusActive, OrganizationStatusSuspended, OrganizationStatusTrial:
		return true
	}
	return false
}

// Organization is the tenant boundary.
type Organization struct {
	ID        string
	Name      string
	Slug      string
	Status    OrganizationStatus
	Theme     json.RawMessage
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
