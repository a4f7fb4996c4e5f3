package access

import "github.com/spec-kit/helpdesk-service/internal/domain"

// PermissionSet is a client-facing summary of what an actor may do.
type PermissionSet struct {
	CanManageOrganization  bool `json:"canManageOrganization"`
	CanManageUsers         bool `json:"canManageUsers"`
	CanAssignTickets       bool `json:"canAssignTickets"`
	CanViewAllTickets      bool `json:"canViewAllTickets"`
	CanCreateInternalNotes bool `json:"canCreateInternalNotes"`
	CanDeleteTickets       bool `json:"canDeleteTickets"`
	CanHardDeleteTickets   bool `json:"canHardDeleteTickets"`
	IsPlatformAdmin        bool `json:"isPlatformAdmin"`
	IsOrgAdmin             bool `json:"isOrgAdmin"`
	IsTechnician           bool `json:"isTechnician"`
	IsCustomer             bool `json:"isCustomer"`
}

// Permissions derives the summary from the same predicates used to
// authorize requests.
func Permissions(actor domain.Actor) PermissionSet {
	admin := IsPlatformAdmin(actor) || IsOrgAdmin(actor)
	return PermissionSet{
		CanManageOrganization:  admin,
		CanManageUsers:         admin,
		CanAssignTickets:       IsAgent(actor),
		CanViewAllTickets:      IsAgent(actor),
		CanCreateInternalNotes: IsAgent(actor),
		CanDeleteTickets:       IsAgent(actor),
		CanHardDeleteTickets:   IsPlatformAdmin(actor),
		IsPlatformAdmin:        IsPlatformAdmin(actor),
		IsOrgAdmin:             IsOrgAdmin(actor),
		IsTechnician:           IsTechnician(actor),
		IsCustomer:             IsCustomer(actor),
	}
}
