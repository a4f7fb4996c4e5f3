package access

import "github.com/spec-kit/helpdesk-service/internal/domain"

// CanComment reports whether the actor may post on the ticket thread.
func CanComment(actor domain.Actor, ticket domain.Ticket) bool {
	return CanAccessTicket(actor, ticket)
}

// CanViewComment reports whether a comment is visible to the actor.
// Internal notes are hidden from customers, ticket owners included.
func CanViewComment(actor domain.Actor, comment domain.Comment) bool {
	if !actor.Authenticated() {
		return false
	}
	if comment.IsInternal {
		return IsAgent(actor)
	}
	return true
}

// IncludeInternalComments reports whether comment listings for the actor
// may contain internal notes.
func IncludeInternalComments(actor domain.Actor) bool {
	return IsAgent(actor)
}

// EffectiveInternalFlag returns the is_internal value to store for a
// comment requested by actor. Non-agents are coerced to false.
func EffectiveInternalFlag(actor domain.Actor, requested bool) bool {
	return requested && IsAgent(actor)
}
