package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var (
	platformAdmin = domain.NewActor("pa-1", "pa@example.com", "platform_admin", "", "Pat", "Admin")
	orgAdmin      = domain.NewActor("oa-1", "oa@example.com", "org_admin", "org-1", "Olga", "Admin")
	technician    = domain.NewActor("tech-1", "tech@example.com", "technician", "org-1", "Tess", "Tech")
	customer      = domain.NewActor("u1", "u1@example.com", "customer", "org-1", "Uma", "One")
	otherCustomer = domain.NewActor("u2", "u2@example.com", "customer", "org-1", "Ugo", "Two")
	foreignTech   = domain.NewActor("tech-2", "tech2@example.com", "technician", "org-2", "Theo", "Other")
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

type testEnv struct {
	tickets  *memory.TicketRepository
	comments *memory.CommentRepository
	orgs     *memory.OrganizationRepository
	users    *memory.UserRepository
	history  *memory.TicketHistoryRepository

	dispatcher events.Dispatcher
	recorded   *recordedEvents

	ticketService  *TicketService
	commentService *CommentService
	orgService     *OrganizationService
	userService    *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	pagination := config.PaginationConfig{DefaultLimit: 50, MaxLimit: 100}

	env := &testEnv{
		tickets:    memory.NewTicketRepository(),
		comments:   memory.NewCommentRepository(),
		orgs:       memory.NewOrganizationRepository(),
		users:      memory.NewUserRepository(),
		history:    memory.NewTicketHistoryRepository(),
		dispatcher: events.NewInMemoryDispatcher(nil),
		recorded:   &recordedEvents{},
	}
	env.dispatcher.SubscribeAll(env.recorded.handle)

	env.userService = NewUserService(UserDependencies{
		UserRepo:   env.users,
		OrgRepo:    env.orgs,
		Dispatcher: env.dispatcher,
		Pagination: pagination,
		Clock:      clock.Now,
	})
	env.ticketService = NewTicketService(TicketDependencies{
		TicketRepo:  env.tickets,
		UserRepo:    env.users,
		OrgRepo:     env.orgs,
		HistoryRepo: env.history,
		UserSyncer:  env.userService,
		Dispatcher:  env.dispatcher,
		Pagination:  pagination,
		Clock:       clock.Now,
	})
	env.commentService = NewCommentService(CommentDependencies{
		TicketRepo:  env.tickets,
		CommentRepo: env.comments,
		Dispatcher:  env.dispatcher,
		Pagination:  pagination,
		Clock:       clock.Now,
	})
	env.orgService = NewOrganizationService(OrganizationDependencies{
		OrgRepo:    env.orgs,
		Dispatcher: env.dispatcher,
		Pagination: pagination,
		Clock:      clock.Now,
	})
	return env
}

func (e *testEnv) seedUser(t *testing.T, actor domain.Actor) {
	t.Helper()
	_, err := e.userService.EnsureUser(context.Background(), actor)
	require.NoError(t, err)
}

func (e *testEnv) createTicket(t *testing.T, actor domain.Actor, title string) *domain.Ticket {
	t.Helper()
	ticket, err := e.ticketService.CreateTicket(context.Background(), actor, TicketCreateInput{
		Title:       title,
		Description: "something is broken",
	})
	require.NoError(t, err)
	return ticket
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equalf(t, code, domainErr.Code, "unexpected error: %v", err)
}
