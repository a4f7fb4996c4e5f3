package access

import "github.com/spec-kit/helpdesk-service/internal/domain"

// OrgScope resolves the organization a collection query must be narrowed
// to. Platform admins get whatever they asked for, including "" for every
// tenant. Everyone else is pinned to their own organization; asking for
// another one, or having none, yields ok=false.
func OrgScope(actor domain.Actor, requested string) (orgID string, ok bool) {
	if !actor.Authenticated() {
		return "", false
	}
	if IsPlatformAdmin(actor) {
		return requested, true
	}
	if !actor.HasOrg() {
		return "", false
	}
	if requested != "" && requested != actor.OrgID {
		return "", false
	}
	return actor.OrgID, true
}

// CreatorScope returns the creator id ticket listings must be narrowed to.
// Only customers are restricted.
func CreatorScope(actor domain.Actor) (userID string, restricted bool) {
	if IsAgent(actor) {
		return "", false
	}
	return actor.ID, true
}

// CanListUsers reports whether the actor may browse the user directory.
func CanListUsers(actor domain.Actor) bool {
	return IsPlatformAdmin(actor) || IsOrgAdmin(actor)
}

// CanListTechnicians reports whether the actor may see assignable staff.
func CanListTechnicians(actor domain.Actor) bool {
	return IsAgent(actor)
}
