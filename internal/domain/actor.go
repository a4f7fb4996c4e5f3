package domain

import "strings"

// Role enumerates the platform role hierarchy.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleOrgAdmin      Role = "org_admin"
	RoleTechnician    Role = "technician"
	RoleCustomer      Role = "customer"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{RolePlatformAdmin, RoleOrgAdmin, RoleTechnician, RoleCustomer}

// ParseRole folds case and whitespace. The second return value reports
// whether the input named a known role.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range Roles {
		if candidate == role {
			return role, true
		}
	}
	return RoleCustomer, false
}

// NormalizeRole maps any string onto the role vocabulary, falling back to
// customer for unknown values.
func NormalizeRole(raw string) Role {
	role, _ := ParseRole(raw)
	return role
}

// Rank orders roles by privilege; higher is more privileged.
func (r Role) Rank() int {
	switch r {
	case RolePlatformAdmin:
		return 4
	case RoleOrgAdmin:
		return 3
	case RoleTechnician:
		return 2
	default:
		return 1
	}
}

// Actor is the authenticated caller of a single request.
type Actor struct {
	ID          string
	Email       string
	Role        Role
	OrgID       string
	GivenName   string
	FamilyName  string
	DisplayName string
}

// NewActor builds an actor with a normalized role and derived display name.
func NewActor(id, email, role, orgID, givenName, familyName string) Actor {
	actor := Actor{
		ID:         strings.TrimSpace(id),
		Email:      email,
		Role:       NormalizeRole(role),
		OrgID:      strings.TrimSpace(orgID),
		GivenName:  strings.TrimSpace(givenName),
		FamilyName: strings.TrimSpace(familyName),
	}
	actor.DisplayName = strings.TrimSpace(actor.GivenName + " " + actor.FamilyName)
	if actor.DisplayName == "" {
		actor.DisplayName = actor.Email
	}
	return actor
}

// Authenticated reports whether the actor carries a subject id.
func (a Actor) Authenticated() bool {
	return a.ID != ""
}

// HasOrg reports whether the actor belongs to an organization.
func (a Actor) HasOrg() bool {
	return a.OrgID != ""
}
