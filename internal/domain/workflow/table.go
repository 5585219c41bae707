package workflow

import "fmt"

// Table is an immutable transition table for one record kind. Edges are
// keyed by (from, event); a state with no outgoing edges is terminal.
type Table struct {
	kind     Kind
	edges    map[State]map[Event]Edge
	targets  map[Event]map[State]struct{}
	eventRol map[Event]map[Role]struct{}
}

// NewTable builds a Table from the given edges. It panics on a duplicate
// (from, event) pair: tables are package-level constants and a duplicate
// is a programming error, not a runtime condition.
func NewTable(kind Kind, edges []Edge) *Table {
	t := &Table{
		kind:     kind,
		edges:    make(map[State]map[Event]Edge),
		targets:  make(map[Event]map[State]struct{}),
		eventRol: make(map[Event]map[Role]struct{}),
	}

	for _, e := range edges {
		byEvent, ok := t.edges[e.From]
		if !ok {
			byEvent = make(map[Event]Edge)
			t.edges[e.From] = byEvent
		}
		if _, dup := byEvent[e.Event]; dup {
			panic(fmt.Sprintf("workflow: duplicate edge (%s, %s) in %s table", e.From, e.Event, kind))
		}
		byEvent[e.Event] = e

		if _, ok := t.targets[e.Event]; !ok {
			t.targets[e.Event] = make(map[State]struct{})
		}
		t.targets[e.Event][e.To] = struct{}{}

		if _, ok := t.eventRol[e.Event]; !ok {
			t.eventRol[e.Event] = make(map[Role]struct{})
		}
		for _, r := range e.Roles {
			t.eventRol[e.Event][r] = struct{}{}
		}
	}

	return t
}

// Kind returns the record kind this table governs.
func (t *Table) Kind() Kind {
	return t.kind
}

// Lookup returns the edge for (from, event), if any.
func (t *Table) Lookup(from State, event Event) (Edge, bool) {
	byEvent, ok := t.edges[from]
	if !ok {
		return Edge{}, false
	}
	e, ok := byEvent[event]
	return e, ok
}

// IsTarget reports whether state is a target of event on any edge.
// Used to detect idempotent re-application of an already applied event.
func (t *Table) IsTarget(event Event, state State) bool {
	states, ok := t.targets[event]
	if !ok {
		return false
	}
	_, ok = states[state]
	return ok
}

// IsTerminal reports whether state has no outgoing edges.
func (t *Table) IsTerminal(state State) bool {
	return len(t.edges[state]) == 0
}

// EventAllowsRole reports whether any edge carrying event admits role.
// Ownership-gated edges admit RoleOwner.
func (t *Table) EventAllowsRole(event Event, role Role) bool {
	roles, ok := t.eventRol[event]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}
