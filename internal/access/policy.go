package access

import "github.com/spec-kit/helpdesk-service/internal/domain"

// IsPlatformAdmin reports whether the actor administers the whole platform.
func IsPlatformAdmin(actor domain.Actor) bool {
	return actor.Authenticated() && actor.Role == domain.RolePlatformAdmin
}

// IsOrgAdmin reports whether the actor administers their organization.
func IsOrgAdmin(actor domain.Actor) bool {
	return actor.Authenticated() && actor.Role == domain.RoleOrgAdmin
}

// IsTechnician reports whether the actor works tickets in their organization.
func IsTechnician(actor domain.Actor) bool {
	return actor.Authenticated() && actor.Role == domain.RoleTechnician
}

// IsCustomer reports whether the actor is a customer.
func IsCustomer(actor domain.Actor) bool {
	return actor.Authenticated() && actor.Role == domain.RoleCustomer
}

// IsAgent reports whether the actor is staff: technician or any admin.
func IsAgent(actor domain.Actor) bool {
	return IsPlatformAdmin(actor) || IsOrgAdmin(actor) || IsTechnician(actor)
}

// IsAgentRole is IsAgent for a bare role, used when inspecting stored users.
func IsAgentRole(role domain.Role) bool {
	return role == domain.RolePlatformAdmin || role == domain.RoleOrgAdmin || role == domain.RoleTechnician
}

// CanAccessOrg reports whether the actor may read data of orgID.
func CanAccessOrg(actor domain.Actor, orgID string) bool {
	if !actor.Authenticated() {
		return false
	}
	if IsPlatformAdmin(actor) {
		return true
	}
	return actor.HasOrg() && actor.OrgID == orgID
}

// CanManageOrg reports whether the actor may change settings of orgID.
func CanManageOrg(actor domain.Actor, orgID string) bool {
	if IsPlatformAdmin(actor) {
		return true
	}
	return IsOrgAdmin(actor) && actor.HasOrg() && actor.OrgID == orgID
}

// CanCreateOrg reports whether the actor may create tenants.
func CanCreateOrg(actor domain.Actor) bool {
	return IsPlatformAdmin(actor)
}

// CanCreateTicketIn reports whether the actor may open a ticket in orgID.
func CanCreateTicketIn(actor domain.Actor, orgID string) bool {
	if orgID == "" {
		return false
	}
	return CanAccessOrg(actor, orgID)
}

// crossOrg reports a tenant mismatch. A ticket without an org id is not
// considered foreign.
func crossOrg(actor domain.Actor, ticket domain.Ticket) bool {
	return ticket.OrgID != "" && actor.OrgID != ticket.OrgID
}

// CanAccessTicket reports whether the actor may read the ticket.
func CanAccessTicket(actor domain.Actor, ticket domain.Ticket) bool {
	if !actor.Authenticated() {
		return false
	}
	if IsPlatformAdmin(actor) {
		return true
	}
	if crossOrg(actor, ticket) {
		return false
	}
	if IsOrgAdmin(actor) || IsTechnician(actor) {
		return true
	}
	return ticket.CreatedBy == actor.ID
}

// CanUpdateTicket reports whether the actor may write to the ticket at all.
// Which fields they may write is decided by CanWriteTicketField.
func CanUpdateTicket(actor domain.Actor, ticket domain.Ticket) bool {
	if !actor.Authenticated() {
		return false
	}
	if IsPlatformAdmin(actor) {
		return true
	}
	if crossOrg(actor, ticket) {
		return false
	}
	if IsOrgAdmin(actor) || IsTechnician(actor) {
		return true
	}
	return ticket.CreatedBy == actor.ID
}

// CanDeleteTicket reports whether the actor may delete the ticket. Hard
// deletes are reserved to platform admins regardless of organization.
func CanDeleteTicket(actor domain.Actor, ticket domain.Ticket, hard bool) bool {
	if !actor.Authenticated() {
		return false
	}
	if hard {
		return IsPlatformAdmin(actor)
	}
	if IsPlatformAdmin(actor) {
		return true
	}
	if crossOrg(actor, ticket) {
		return false
	}
	if IsOrgAdmin(actor) {
		return true
	}
	if IsTechnician(actor) {
		return true
	}
	return ticket.CreatedBy == actor.ID
}

// CanAssignTicket reports whether the actor may set the ticket assignee.
// Customers never can.
func CanAssignTicket(actor domain.Actor, ticket domain.Ticket) bool {
	if !actor.Authenticated() {
		return false
	}
	if IsPlatformAdmin(actor) {
		return true
	}
	if crossOrg(actor, ticket) {
		return false
	}
	return IsOrgAdmin(actor) || IsTechnician(actor)
}

// CanBeAssignee reports whether a stored user may own tickets of orgID.
// Platform admins assigning across tenants skip the org comparison.
func CanBeAssignee(actor domain.Actor, assignee domain.User, ticketOrgID string) bool {
	if !IsAgentRole(assignee.Role) {
		return false
	}
	if IsPlatformAdmin(actor) || ticketOrgID == "" {
		return true
	}
	return assignee.OrgIDValue() == ticketOrgID
}

// CanViewHistory reports whether the actor may read the audit trail of a
// ticket.
func CanViewHistory(actor domain.Actor, ticket domain.Ticket) bool {
	return IsAgent(actor) && CanAccessTicket(actor, ticket)
}
