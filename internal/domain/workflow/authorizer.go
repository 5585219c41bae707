package workflow

import (
	"fmt"
	"strings"

	"github.com/dealership/backend/internal/domain/shared"
)

// Request describes one attempted transition.
type Request struct {
	Current State
	Event   Event
	Actor   Actor
	// IsOwner is true when the actor is the record's customer. It
	// satisfies edges gated on RoleOwner.
	IsOwner bool
	Reason  string
}

// Authorizer decides whether a requested transition is accepted. It is
// stateless: all of its answers derive from the table and the request.
type Authorizer struct {
	table *Table
}

// NewAuthorizer creates an authorizer over the given table.
func NewAuthorizer(table *Table) *Authorizer {
	return &Authorizer{table: table}
}

// Table returns the transition table this authorizer consults.
func (a *Authorizer) Table() *Table {
	return a.table
}

// Authorize resolves a transition request against the table.
//
// Unknown (state, event) pairs fail with ILLEGAL_TRANSITION unless the
// record is already in the event's target state, in which case the
// request succeeds as a no-op with zero intents. Known edges check the
// actor's role (FORBIDDEN) and the reason requirement (VALIDATION)
// before producing an applied decision carrying the edge's intents.
func (a *Authorizer) Authorize(req Request) (*Decision, error) {
	edge, ok := a.table.Lookup(req.Current, req.Event)
	if !ok {
		if a.table.IsTarget(req.Event, req.Current) {
			if !a.eventAllowed(req) {
				return nil, a.forbidden(req)
			}
			return &Decision{
				Kind:    a.table.Kind(),
				Event:   req.Event,
				From:    req.Current,
				To:      req.Current,
				Intents: nil,
				Applied: false,
			}, nil
		}
		return nil, shared.NewIllegalTransitionError(fmt.Sprintf(
			"event %q is not allowed for %s in state %q",
			req.Event, strings.ToLower(string(a.table.Kind())), req.Current,
		))
	}

	if !a.edgeAllowed(edge, req) {
		return nil, a.forbidden(req)
	}

	if edge.RequireReason && strings.TrimSpace(req.Reason) == "" {
		return nil, shared.NewValidationError(fmt.Sprintf(
			"a reason is required to apply %q", req.Event,
		))
	}

	return &Decision{
		Kind:    a.table.Kind(),
		Event:   req.Event,
		From:    edge.From,
		To:      edge.To,
		Intents: edge.Intents,
		Applied: true,
	}, nil
}

func (a *Authorizer) edgeAllowed(edge Edge, req Request) bool {
	for _, r := range edge.Roles {
		if r == req.Actor.Role {
			return true
		}
		if r == RoleOwner && req.IsOwner {
			return true
		}
	}
	return false
}

// eventAllowed checks the role against the union of edges carrying the
// event. Used only on the idempotent no-op path, where no single edge
// applies.
func (a *Authorizer) eventAllowed(req Request) bool {
	if a.table.EventAllowsRole(req.Event, req.Actor.Role) {
		return true
	}
	return req.IsOwner && a.table.EventAllowsRole(req.Event, RoleOwner)
}

func (a *Authorizer) forbidden(req Request) *shared.DomainError {
	return shared.NewForbiddenError(fmt.Sprintf(
		"role %q may not apply %q", req.Actor.Role, req.Event,
	))
}
