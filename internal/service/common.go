package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// PageRequest carries the forward-only pagination parameters of a listing.
type PageRequest struct {
	Limit  int
	Cursor string
}

// Page is one slice of a listing. NextCursor is empty on the last page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Clock returns the current time. Stored timestamps use microsecond
// precision to match Postgres.
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func resolveClock(clock Clock) Clock {
	if clock == nil {
		return defaultClock
	}
	return clock
}

// nextVersion returns a write timestamp strictly after prev so that
// optimistic concurrency tokens never repeat.
func nextVersion(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

func resolveLimit(requested int, cfg config.PaginationConfig) (int, error) {
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	switch {
	case requested == 0:
		return defaultLimit, nil
	case requested < 0:
		return 0, apperrors.NewValidationError("limit must be positive", map[string]any{"limit": requested})
	case requested > maxLimit:
		return 0, apperrors.NewValidationError("limit exceeds maximum", map[string]any{"limit": requested, "max": maxLimit})
	}
	return requested, nil
}

func invalidCursor() error {
	return apperrors.NewValidationError("invalid cursor", map[string]any{"field": "cursor"})
}

func requireActor(actor domain.Actor) error {
	if !actor.Authenticated() {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

// mapRepoError translates repository sentinels into client-facing errors.
// Anything unrecognized becomes INTERNAL_ERROR so store details never leak.
func mapRepoError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" was modified concurrently; re-fetch and retry", details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return apperrors.NewInternalError(err)
}

func newID() string {
	return uuid.NewString()
}

type eventPublisher struct {
	dispatcher events.Dispatcher
	clock      Clock
}

func (p eventPublisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = resolveClock(p.clock)()
	}
	_ = p.dispatcher.Publish(ctx, event)
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func stringPreview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
