package grid

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kazz187/crewdesk/internal/agent"
	"github.com/kazz187/crewdesk/internal/task"
)

// Field names a row attribute. The values match the wire keys.
type Field string

const (
	FieldName           Field = task.FieldName
	FieldInstructions   Field = task.FieldInstructions
	FieldExpectedOutput Field = task.FieldExpectedOutput
	FieldOrder          Field = "order"
	FieldHumanInput     Field = "human_input"
	FieldAsyncExecution Field = "async_execution"
	FieldAgent          Field = "agent"
)

var requiredFields = []Field{FieldName, FieldInstructions, FieldExpectedOutput}

type RowState int

const (
	StateDraft RowState = iota
	StatePendingCreate
	StatePersisted
	StatePendingUpdate
	// StateUnsynced marks a persisted row whose last update was rejected.
	StateUnsynced
)

func (s RowState) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StatePendingCreate:
		return "pending_create"
	case StatePersisted:
		return "persisted"
	case StatePendingUpdate:
		return "pending_update"
	case StateUnsynced:
		return "unsynced"
	default:
		return fmt.Sprintf("RowState(%d)", int(s))
	}
}

// AgentSnapshot is the display projection of the assigned agent. It is
// derived from AgentID and never sent to the backend.
type AgentSnapshot struct {
	ID        int
	Role      string
	Goal      string
	Backstory string
}

func snapshotFromAgent(a *agent.Agent) *AgentSnapshot {
	return &AgentSnapshot{
		ID:        a.ID,
		Role:      a.Role,
		Goal:      a.Goal,
		Backstory: a.Backstory,
	}
}

func (a *AgentSnapshot) matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, s := range []string{a.Role, a.Goal, a.Backstory} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

type Row struct {
	ID             RowID
	Name           string
	Instructions   string
	ExpectedOutput string
	Order          *int
	HumanInput     bool
	AsyncExecution bool
	Config         map[string]any
	OutputModel    map[string]any
	AgentID        *int
	Agent          *AgentSnapshot
	// Warnings holds the required fields that failed the last validation.
	Warnings []Field
	State    RowState

	revision uint64
}

func newDraftRow() *Row {
	return &Row{ID: NewTemporaryID(), State: StateDraft}
}

func rowFromTask(t *task.Task, agents map[int]*AgentSnapshot) *Row {
	r := &Row{ID: ServerID(t.ID), State: StatePersisted}
	r.applyTask(t, agents)
	return r
}

// applyTask copies the server record into the row. Identity is left alone.
func (r *Row) applyTask(t *task.Task, agents map[int]*AgentSnapshot) {
	r.Name = t.Name
	r.Instructions = t.Instructions
	r.ExpectedOutput = t.ExpectedOutput
	r.Order = cloneInt(t.Order)
	r.HumanInput = t.HumanInput
	r.AsyncExecution = t.AsyncExecution
	r.Config = cloneMap(t.Config)
	r.OutputModel = cloneMap(t.OutputModel)
	r.setAgent(cloneInt(t.AgentID), agents)
}

// setAgent updates the foreign key and recomputes the snapshot from it.
func (r *Row) setAgent(id *int, agents map[int]*AgentSnapshot) {
	r.AgentID = id
	r.Agent = nil
	if id == nil {
		return
	}
	if a, ok := agents[*id]; ok {
		snap := *a
		r.Agent = &snap
	}
}

func (r *Row) payload(crewID int) *task.Payload {
	return &task.Payload{
		Name:           r.Name,
		Instructions:   r.Instructions,
		ExpectedOutput: r.ExpectedOutput,
		Order:          cloneInt(r.Order),
		HumanInput:     r.HumanInput,
		AsyncExecution: r.AsyncExecution,
		Config:         cloneMap(r.Config),
		OutputModel:    cloneMap(r.OutputModel),
		CrewID:         crewID,
		AgentID:        cloneInt(r.AgentID),
	}
}

// Value returns the current value of f.
func (r *Row) Value(f Field) any {
	switch f {
	case FieldName:
		return r.Name
	case FieldInstructions:
		return r.Instructions
	case FieldExpectedOutput:
		return r.ExpectedOutput
	case FieldOrder:
		if r.Order == nil {
			return nil
		}
		return *r.Order
	case FieldHumanInput:
		return r.HumanInput
	case FieldAsyncExecution:
		return r.AsyncExecution
	case FieldAgent:
		if r.AgentID == nil {
			return nil
		}
		return *r.AgentID
	default:
		return nil
	}
}

func (r *Row) set(f Field, v any) error {
	switch f {
	case FieldName, FieldInstructions, FieldExpectedOutput:
		s, ok := v.(string)
		if !ok && v != nil {
			return fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, f, v)
		}
		switch f {
		case FieldName:
			r.Name = s
		case FieldInstructions:
			r.Instructions = s
		default:
			r.ExpectedOutput = s
		}
	case FieldHumanInput, FieldAsyncExecution:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a bool, got %T", ErrInvalidValue, f, v)
		}
		if f == FieldHumanInput {
			r.HumanInput = b
		} else {
			r.AsyncExecution = b
		}
	default:
		return fmt.Errorf("%w: %s", ErrColumnNotEditable, f)
	}
	return nil
}

func (r *Row) missingFields() []Field {
	var missing []Field
	for _, f := range requiredFields {
		if strings.TrimSpace(r.Value(f).(string)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// setWarnings replaces the warning set and returns the fields whose flag
// changed.
func (r *Row) setWarnings(fields []Field) []Field {
	var changed []Field
	for _, f := range requiredFields {
		if slices.Contains(r.Warnings, f) != slices.Contains(fields, f) {
			changed = append(changed, f)
		}
	}
	r.Warnings = slices.Clone(fields)
	return changed
}

func (r *Row) HasWarning(f Field) bool {
	return slices.Contains(r.Warnings, f)
}

// clone deep-copies the row, identity included.
func (r *Row) clone() *Row {
	c := *r
	c.Order = cloneInt(r.Order)
	c.Config = cloneMap(r.Config)
	c.OutputModel = cloneMap(r.OutputModel)
	c.AgentID = cloneInt(r.AgentID)
	if r.Agent != nil {
		a := *r.Agent
		c.Agent = &a
	}
	c.Warnings = slices.Clone(r.Warnings)
	return &c
}

// cloneValues copies the field values into a fresh draft row.
func (r *Row) cloneValues() *Row {
	c := r.clone()
	c.ID = RowID{}
	c.Order = nil
	c.Warnings = nil
	c.State = StateDraft
	c.revision = 0
	return c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func intPtr(v int) *int {
	return &v
}

// cloneMap copies opaque JSON-like data, descending into nested maps and
// slices.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
