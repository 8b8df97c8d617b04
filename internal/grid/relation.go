package grid

import (
	"context"
	"fmt"
)

// OpenRelation opens the agent selector anchored to the row.
func (e *Engine) OpenRelation(id RowID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.indexOf(id) < 0 {
		return ErrRowNotFound
	}
	e.session.close()
	e.session.state = SessionOverlayOpen
	e.session.overlay = id
	return nil
}

// Candidates returns every agent of the crew.
func (e *Engine) Candidates() []AgentSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filterCandidates("")
}

// FilterRelation narrows the open selector to agents whose role, goal or
// backstory contains query, ignoring case.
func (e *Engine) FilterRelation(query string) ([]AgentSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.state != SessionOverlayOpen {
		return nil, ErrNoOverlay
	}
	e.session.query = query
	return e.filterCandidates(query), nil
}

func (e *Engine) filterCandidates(query string) []AgentSnapshot {
	var out []AgentSnapshot
	for _, a := range e.candidates {
		if a.matches(query) {
			out = append(out, *a)
		}
	}
	return out
}

// SelectRelation assigns the agent to the overlay row and persists the row.
// Selecting the agent already assigned clears the relation. The overlay
// closes either way.
func (e *Engine) SelectRelation(ctx context.Context, agentID int) error {
	e.mu.Lock()
	if e.session.state != SessionOverlayOpen {
		e.mu.Unlock()
		return ErrNoOverlay
	}
	id := e.session.overlay
	e.session.close()
	row, _ := e.store.find(id)
	if row == nil {
		e.mu.Unlock()
		return ErrRowNotFound
	}
	if row.AgentID != nil && *row.AgentID == agentID {
		row.setAgent(nil, e.agentIndex)
	} else {
		if _, ok := e.agentIndex[agentID]; !ok {
			e.mu.Unlock()
			return fmt.Errorf("%w: %d", ErrUnknownAgent, agentID)
		}
		row.setAgent(intPtr(agentID), e.agentIndex)
	}
	row.revision++
	e.mu.Unlock()

	e.view.RefreshCells([]RowID{id}, []Field{FieldAgent})
	return e.persist(ctx, id)
}
