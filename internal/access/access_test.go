package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var (
	platformAdmin = domain.NewActor("pa-1", "pa@example.com", "platform_admin", "", "Pat", "Admin")
	orgAdmin      = domain.NewActor("oa-1", "oa@example.com", "org_admin", "org-1", "", "")
	technician    = domain.NewActor("tech-1", "tech@example.com", "technician", "org-1", "", "")
	customer      = domain.NewActor("u1", "u1@example.com", "customer", "org-1", "", "")
	otherCustomer = domain.NewActor("u2", "u2@example.com", "customer", "org-1", "", "")
	foreignAdmin  = domain.NewActor("oa-2", "oa2@example.com", "org_admin", "org-2", "", "")
	foreignTech   = domain.NewActor("tech-2", "tech2@example.com", "technician", "org-2", "", "")
	anonymous     = domain.Actor{}
)

func ticketIn(orgID, createdBy string) domain.Ticket {
	return domain.Ticket{
		ID:        "t-1",
		OrgID:     orgID,
		CreatedBy: createdBy,
		Status:    domain.TicketStatusOpen,
		Priority:  domain.TicketPriorityMedium,
	}
}

func TestCanAccessTicket(t *testing.T) {
	t1 := ticketIn("org-1", "u1")

	tests := []struct {
		name   string
		actor  domain.Actor
		ticket domain.Ticket
		want   bool
	}{
		{name: "platform_admin_any_org", actor: platformAdmin, ticket: ticketIn("org-9", "x"), want: true},
		{name: "org_admin_same_org", actor: orgAdmin, ticket: t1, want: true},
		{name: "technician_same_org", actor: technician, ticket: t1, want: true},
		{name: "customer_owner", actor: customer, ticket: t1, want: true},
		{name: "customer_not_owner", actor: otherCustomer, ticket: t1, want: false},
		{name: "org_admin_other_org", actor: foreignAdmin, ticket: t1, want: false},
		{name: "technician_other_org", actor: foreignTech, ticket: t1, want: false},
		{name: "customer_owner_other_org", actor: domain.NewActor("u1", "", "customer", "org-2", "", ""), ticket: t1, want: false},
		{name: "customer_owner_without_org", actor: domain.NewActor("u1", "", "customer", "", "", ""), ticket: t1, want: false},
		{name: "ticket_without_org_owner", actor: customer, ticket: ticketIn("", "u1"), want: true},
		{name: "anonymous", actor: anonymous, ticket: t1, want: false},
		{name: "anonymous_matching_creator", actor: domain.Actor{Role: domain.RoleCustomer, OrgID: "org-1"}, ticket: ticketIn("org-1", ""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessTicket(tt.actor, tt.ticket))
			assert.Equal(t, tt.want, CanUpdateTicket(tt.actor, tt.ticket))
		})
	}
}

func TestCustomerScenarios(t *testing.T) {
	t1 := ticketIn("org-1", customer.ID)

	assert.False(t, CanAccessTicket(otherCustomer, t1), "another customer in the same org")
	assert.True(t, CanAccessTicket(technician, t1), "technician in the same org")
}

func TestPlatformAdminCrossesTenants(t *testing.T) {
	for _, orgID := range []string{"", "org-1", "org-2", "org-unknown"} {
		ticket := ticketIn(orgID, "someone-else")
		assert.True(t, CanAccessTicket(platformAdmin, ticket), orgID)
		assert.True(t, CanUpdateTicket(platformAdmin, ticket), orgID)
		assert.True(t, CanAccessOrg(platformAdmin, orgID), orgID)
		assert.True(t, CanManageOrg(platformAdmin, orgID), orgID)
		assert.True(t, CanDeleteTicket(platformAdmin, ticket, true), orgID)
	}
}

func TestCrossOrgDeniesEveryTicketPredicate(t *testing.T) {
	ticket := ticketIn("org-2", "u1")
	for _, actor := range []domain.Actor{orgAdmin, technician, customer} {
		t.Run(string(actor.Role), func(t *testing.T) {
			assert.False(t, CanAccessTicket(actor, ticket))
			assert.False(t, CanUpdateTicket(actor, ticket))
			assert.False(t, CanAssignTicket(actor, ticket))
			assert.False(t, CanDeleteTicket(actor, ticket, false))
			assert.False(t, CanDeleteTicket(actor, ticket, true))
			assert.False(t, CanComment(actor, ticket))
		})
	}
}

func TestOrgPredicates(t *testing.T) {
	tests := []struct {
		name       string
		actor      domain.Actor
		orgID      string
		wantAccess bool
		wantManage bool
	}{
		{name: "org_admin_own", actor: orgAdmin, orgID: "org-1", wantAccess: true, wantManage: true},
		{name: "org_admin_other", actor: orgAdmin, orgID: "org-2", wantAccess: false, wantManage: false},
		{name: "technician_own", actor: technician, orgID: "org-1", wantAccess: true, wantManage: false},
		{name: "customer_own", actor: customer, orgID: "org-1", wantAccess: true, wantManage: false},
		{name: "customer_other", actor: customer, orgID: "org-2", wantAccess: false, wantManage: false},
		{name: "orgless_customer_empty_org", actor: domain.NewActor("u9", "", "customer", "", "", ""), orgID: "", wantAccess: false, wantManage: false},
		{name: "anonymous", actor: anonymous, orgID: "org-1", wantAccess: false, wantManage: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAccess, CanAccessOrg(tt.actor, tt.orgID))
			assert.Equal(t, tt.wantManage, CanManageOrg(tt.actor, tt.orgID))
		})
	}

	assert.True(t, CanCreateOrg(platformAdmin))
	assert.False(t, CanCreateOrg(orgAdmin))
	assert.True(t, CanCreateTicketIn(customer, "org-1"))
	assert.False(t, CanCreateTicketIn(customer, "org-2"))
	assert.False(t, CanCreateTicketIn(platformAdmin, ""))
}

func TestCanDeleteTicket(t *testing.T) {
	owned := ticketIn("org-1", "u1")

	tests := []struct {
		name  string
		actor domain.Actor
		hard  bool
		want  bool
	}{
		{name: "platform_admin_hard", actor: platformAdmin, hard: true, want: true},
		{name: "org_admin_hard", actor: orgAdmin, hard: true, want: false},
		{name: "technician_hard", actor: technician, hard: true, want: false},
		{name: "owner_hard", actor: customer, hard: true, want: false},
		{name: "org_admin_soft", actor: orgAdmin, want: true},
		{name: "technician_soft", actor: technician, want: true},
		{name: "owner_soft", actor: customer, want: true},
		{name: "non_owner_soft", actor: otherCustomer, want: false},
		{name: "anonymous_soft", actor: anonymous, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDeleteTicket(tt.actor, owned, tt.hard))
		})
	}
}

func TestCanAssignTicket(t *testing.T) {
	ticket := ticketIn("org-1", "u1")

	assert.True(t, CanAssignTicket(platformAdmin, ticket))
	assert.True(t, CanAssignTicket(orgAdmin, ticket))
	assert.True(t, CanAssignTicket(technician, ticket))
	assert.False(t, CanAssignTicket(customer, ticket), "owner still cannot assign")
	assert.False(t, CanAssignTicket(anonymous, ticket))
}

func TestCanBeAssignee(t *testing.T) {
	org1 := "org-1"
	org2 := "org-2"
	tech := domain.User{ID: "tech-1", Role: domain.RoleTechnician, OrgID: &org1}
	foreign := domain.User{ID: "tech-2", Role: domain.RoleTechnician, OrgID: &org2}
	cust := domain.User{ID: "u1", Role: domain.RoleCustomer, OrgID: &org1}

	assert.True(t, CanBeAssignee(orgAdmin, tech, "org-1"))
	assert.False(t, CanBeAssignee(orgAdmin, foreign, "org-1"))
	assert.True(t, CanBeAssignee(platformAdmin, foreign, "org-1"))
	assert.False(t, CanBeAssignee(platformAdmin, cust, "org-1"))
}

func TestFieldScoping(t *testing.T) {
	owned := ticketIn("org-1", "u1")

	for field := range GeneralTicketFields {
		assert.True(t, CanWriteTicketField(customer, owned, field), field)
		assert.True(t, CanWriteTicketField(technician, owned, field), field)
		assert.False(t, CanWriteTicketField(otherCustomer, owned, field), field)
	}
	for field := range PrivilegedTicketFields {
		assert.False(t, CanWriteTicketField(customer, owned, field), field)
		assert.True(t, CanWriteTicketField(technician, owned, field), field)
		assert.True(t, CanWriteTicketField(orgAdmin, owned, field), field)
		assert.True(t, CanWriteTicketField(platformAdmin, owned, field), field)
		assert.False(t, CanWriteTicketField(foreignTech, owned, field), field)
	}

	assert.False(t, CanWriteTicketField(technician, owned, "org_id"))
	assert.False(t, CanWriteTicketField(technician, owned, "created_by"))
	assert.True(t, IsTicketField("resolution"))
	assert.False(t, IsTicketField("expected_updated_at"))
}

func TestDeniedTicketFields(t *testing.T) {
	owned := ticketIn("org-1", "u1")

	denied := DeniedTicketFields(customer, owned, []string{"title", "status", "tags", "assigned_to"})
	assert.Equal(t, []string{"assigned_to", "status"}, denied)

	assert.Empty(t, DeniedTicketFields(technician, owned, []string{"title", "status", "resolution"}))
}

func TestResolutionRequiresAgent(t *testing.T) {
	owned := ticketIn("org-1", "u1")
	owned.Status = domain.TicketStatusInProgress

	fields := []string{FieldStatus, FieldResolution}
	for _, actor := range []domain.Actor{technician, orgAdmin, platformAdmin} {
		assert.Empty(t, DeniedTicketFields(actor, owned, fields), actor.Role)
		assert.True(t, CanTransition(owned.Status, domain.TicketStatusResolved))
	}
	assert.Equal(t, []string{FieldResolution, FieldStatus}, DeniedTicketFields(customer, owned, fields))
}

func TestCommentVisibility(t *testing.T) {
	internal := domain.Comment{ID: "c-1", IsInternal: true}
	public := domain.Comment{ID: "c-2"}

	for _, actor := range []domain.Actor{platformAdmin, orgAdmin, technician} {
		assert.True(t, CanViewComment(actor, internal), actor.Role)
		assert.True(t, IncludeInternalComments(actor), actor.Role)
		assert.True(t, EffectiveInternalFlag(actor, true), actor.Role)
	}
	assert.False(t, CanViewComment(customer, internal))
	assert.True(t, CanViewComment(customer, public))
	assert.False(t, CanViewComment(anonymous, public))
	assert.False(t, IncludeInternalComments(customer))
}

func TestEffectiveInternalFlagCoercesCustomers(t *testing.T) {
	assert.False(t, EffectiveInternalFlag(customer, true))
	assert.False(t, EffectiveInternalFlag(customer, false))
	assert.False(t, EffectiveInternalFlag(technician, false))
}

func TestCanChangeRole(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Actor
		target  RoleTarget
		newRole domain.Role
		want    bool
	}{
		{name: "self_change_platform_admin", actor: platformAdmin, target: RoleTarget{UserID: "pa-1", Role: domain.RolePlatformAdmin}, newRole: domain.RoleOrgAdmin, want: false},
		{name: "self_change_org_admin", actor: orgAdmin, target: RoleTarget{UserID: "oa-1", Role: domain.RoleOrgAdmin, OrgID: "org-1"}, newRole: domain.RoleTechnician, want: false},
		{name: "platform_admin_promotes", actor: platformAdmin, target: RoleTarget{UserID: "u1", Role: domain.RoleCustomer, OrgID: "org-1"}, newRole: domain.RolePlatformAdmin, want: true},
		{name: "org_admin_promotes_customer", actor: orgAdmin, target: RoleTarget{UserID: "u1", Role: domain.RoleCustomer, OrgID: "org-1"}, newRole: domain.RoleTechnician, want: true},
		{name: "org_admin_grants_org_admin", actor: orgAdmin, target: RoleTarget{UserID: "tech-1", Role: domain.RoleTechnician, OrgID: "org-1"}, newRole: domain.RoleOrgAdmin, want: true},
		{name: "org_admin_other_org", actor: orgAdmin, target: RoleTarget{UserID: "u7", Role: domain.RoleCustomer, OrgID: "org-2"}, newRole: domain.RoleTechnician, want: false},
		{name: "org_admin_touches_org_admin", actor: orgAdmin, target: RoleTarget{UserID: "oa-3", Role: domain.RoleOrgAdmin, OrgID: "org-1"}, newRole: domain.RoleTechnician, want: false},
		{name: "org_admin_touches_platform_admin", actor: orgAdmin, target: RoleTarget{UserID: "pa-1", Role: domain.RolePlatformAdmin}, newRole: domain.RoleCustomer, want: false},
		{name: "org_admin_orgless_target", actor: orgAdmin, target: RoleTarget{UserID: "u8", Role: domain.RoleCustomer}, newRole: domain.RoleTechnician, want: false},
		{name: "technician", actor: technician, target: RoleTarget{UserID: "u1", Role: domain.RoleCustomer, OrgID: "org-1"}, newRole: domain.RoleTechnician, want: false},
		{name: "customer", actor: customer, target: RoleTarget{UserID: "u2", Role: domain.RoleCustomer, OrgID: "org-1"}, newRole: domain.RoleTechnician, want: false},
		{name: "anonymous", actor: anonymous, target: RoleTarget{UserID: "u2", Role: domain.RoleCustomer, OrgID: "org-1"}, newRole: domain.RoleTechnician, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanChangeRole(tt.actor, tt.target, tt.newRole))
		})
	}
}

func TestOrgAdminNeverGrantsPlatformAdmin(t *testing.T) {
	for _, current := range domain.Roles {
		target := RoleTarget{UserID: "someone", Role: current, OrgID: "org-1"}
		assert.False(t, CanChangeRole(orgAdmin, target, domain.RolePlatformAdmin), current)
	}
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, IsDemotion(domain.RolePlatformAdmin, domain.RoleOrgAdmin))
	assert.True(t, IsDemotion(domain.RoleTechnician, domain.RoleCustomer))
	assert.False(t, IsDemotion(domain.RoleCustomer, domain.RoleTechnician))
	assert.False(t, IsDemotion(domain.RoleOrgAdmin, domain.RoleOrgAdmin))

	assert.True(t, RemovesPlatformAdmin(domain.RolePlatformAdmin, domain.RoleCustomer))
	assert.False(t, RemovesPlatformAdmin(domain.RoleOrgAdmin, domain.RoleCustomer))

	assert.False(t, CanDemotePlatformAdmin(1))
	assert.False(t, CanDemotePlatformAdmin(0))
	assert.True(t, CanDemotePlatformAdmin(2))
}

func TestCanTransition(t *testing.T) {
	allowed := map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusOpen:       {domain.TicketStatusOpen, domain.TicketStatusInProgress},
		domain.TicketStatusInProgress: {domain.TicketStatusInProgress, domain.TicketStatusWaiting, domain.TicketStatusResolved},
		domain.TicketStatusWaiting:    {domain.TicketStatusWaiting, domain.TicketStatusResolved, domain.TicketStatusClosed},
		domain.TicketStatusResolved:   {domain.TicketStatusResolved, domain.TicketStatusClosed},
		domain.TicketStatusClosed:     {domain.TicketStatusClosed},
		domain.TicketStatusDeleted:    {},
	}

	for _, from := range domain.TicketStatuses {
		for _, to := range domain.TicketStatuses {
			want := false
			for _, candidate := range allowed[from] {
				if candidate == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, IsTerminal(domain.TicketStatusClosed))
	assert.True(t, IsTerminal(domain.TicketStatusDeleted))
	assert.False(t, IsTerminal(domain.TicketStatusResolved))
	assert.Empty(t, NextStatuses(domain.TicketStatusClosed))
}

func TestOrgScope(t *testing.T) {
	tests := []struct {
		name      string
		actor     domain.Actor
		requested string
		wantOrg   string
		wantOK    bool
	}{
		{name: "platform_admin_all", actor: platformAdmin, requested: "", wantOrg: "", wantOK: true},
		{name: "platform_admin_narrowed", actor: platformAdmin, requested: "org-2", wantOrg: "org-2", wantOK: true},
		{name: "member_default", actor: technician, requested: "", wantOrg: "org-1", wantOK: true},
		{name: "member_same", actor: customer, requested: "org-1", wantOrg: "org-1", wantOK: true},
		{name: "member_other", actor: customer, requested: "org-2", wantOrg: "", wantOK: false},
		{name: "member_without_org", actor: domain.NewActor("x", "", "technician", "", "", ""), requested: "", wantOrg: "", wantOK: false},
		{name: "anonymous", actor: anonymous, requested: "org-1", wantOrg: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org, ok := OrgScope(tt.actor, tt.requested)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOrg, org)
		})
	}
}

func TestCreatorScope(t *testing.T) {
	id, restricted := CreatorScope(customer)
	assert.True(t, restricted)
	assert.Equal(t, "u1", id)

	id, restricted = CreatorScope(technician)
	assert.False(t, restricted)
	assert.Empty(t, id)
}

func TestPermissions(t *testing.T) {
	perms := Permissions(customer)
	assert.True(t, perms.IsCustomer)
	assert.False(t, perms.CanAssignTickets)
	assert.False(t, perms.CanCreateInternalNotes)

	perms = Permissions(orgAdmin)
	assert.True(t, perms.CanManageUsers)
	assert.True(t, perms.CanManageOrganization)
	assert.False(t, perms.CanHardDeleteTickets)

	perms = Permissions(platformAdmin)
	assert.True(t, perms.CanHardDeleteTickets)
	assert.True(t, perms.IsPlatformAdmin)

	assert.Equal(t, PermissionSet{}, Permissions(anonymous))
}

func TestAnonymousDeniedEverywhere(t *testing.T) {
	ticket := ticketIn("", "")
	assert.False(t, IsAgent(anonymous))
	assert.False(t, CanAccessOrg(anonymous, ""))
	assert.False(t, CanManageOrg(anonymous, ""))
	assert.False(t, CanAccessTicket(anonymous, ticket))
	assert.False(t, CanUpdateTicket(anonymous, ticket))
	assert.False(t, CanDeleteTicket(anonymous, ticket, false))
	assert.False(t, CanAssignTicket(anonymous, ticket))
	assert.False(t, CanCreateTicketIn(anonymous, "org-1"))
	assert.False(t, CanListUsers(anonymous))
	assert.False(t, CanListTechnicians(anonymous))
	assert.False(t, CanViewHistory(anonymous, ticket))
}

func TestPredicatesAreDeterministic(t *testing.T) {
	ticket := ticketIn("org-1", "u1")
	actors := []domain.Actor{platformAdmin, orgAdmin, technician, customer, otherCustomer, foreignAdmin, anonymous}
	for _, actor := range actors {
		for i := 0; i < 3; i++ {
			assert.Equal(t, CanAccessTicket(actor, ticket), CanAccessTicket(actor, ticket))
			assert.Equal(t, CanDeleteTicket(actor, ticket, false), CanDeleteTicket(actor, ticket, false))
			assert.Equal(t, DeniedTicketFields(actor, ticket, []string{"status", "title"}), DeniedTicketFields(actor, ticket, []string{"status", "title"}))
		}
	}
}
