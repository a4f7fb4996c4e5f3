package access

import "github.com/spec-kit/helpdesk-service/internal/domain"

// RoleTarget is the part of a stored user that role decisions look at.
type RoleTarget struct {
	UserID string
	Role   domain.Role
	OrgID  string
}

// CanManageUsers reports whether the actor may list and manage users of orgID.
func CanManageUsers(actor domain.Actor, orgID string) bool {
	return CanManageOrg(actor, orgID)
}

// CanChangeRole reports whether the actor may set target's role to newRole.
//
// Nobody changes their own role. Org admins only act inside their own
// organization, never grant platform_admin and never touch another admin.
// The last-platform-admin rule needs a store-wide count and is checked by
// CanDemotePlatformAdmin.
func CanChangeRole(actor domain.Actor, target RoleTarget, newRole domain.Role) bool {
	if !actor.Authenticated() || target.UserID == "" {
		return false
	}
	if target.UserID == actor.ID {
		return false
	}
	if IsPlatformAdmin(actor) {
		return true
	}
	if !IsOrgAdmin(actor) {
		return false
	}
	if newRole == domain.RolePlatformAdmin {
		return false
	}
	if target.Role == domain.RoleOrgAdmin || target.Role == domain.RolePlatformAdmin {
		return false
	}
	return target.OrgID != "" && CanManageOrg(actor, target.OrgID)
}

// IsDemotion reports whether moving from current to next lowers privilege.
func IsDemotion(current, next domain.Role) bool {
	return next.Rank() < current.Rank()
}

// RemovesPlatformAdmin reports whether the change takes a platform admin out
// of that role.
func RemovesPlatformAdmin(current, next domain.Role) bool {
	return current == domain.RolePlatformAdmin && next != domain.RolePlatformAdmin
}

// CanDemotePlatformAdmin reports whether a platform admin may lose the role
// given the current number of platform admins, the target included.
func CanDemotePlatformAdmin(platformAdmins int) bool {
	return platformAdmins > 1
}
