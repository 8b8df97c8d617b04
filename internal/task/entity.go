package task

import (
	"sort"
	"strings"
	"time"
)

// Task is the persisted record. Order is nil until the backend has placed
// the task; AgentID is the assigned agent, if any.
type Task struct {
	ID             int            `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Instructions   string         `json:"instructions" yaml:"instructions"`
	ExpectedOutput string         `json:"expected_output" yaml:"expected_output"`
	Order          *int           `json:"order" yaml:"order"`
	HumanInput     bool           `json:"human_input" yaml:"human_input"`
	AsyncExecution bool           `json:"async_execution" yaml:"async_execution"`
	Config         map[string]any `json:"config" yaml:"config"`
	OutputModel    map[string]any `json:"output_model" yaml:"output_model"`
	CrewID         int            `json:"crew" yaml:"crew"`
	AgentID        *int           `json:"agent" yaml:"agent"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" yaml:"updated_at"`
}

// Payload is the body of create and full update calls.
type Payload struct {
	Name           string         `json:"name"`
	Instructions   string         `json:"instructions"`
	ExpectedOutput string         `json:"expected_output"`
	Order          *int           `json:"order"`
	HumanInput     bool           `json:"human_input"`
	AsyncExecution bool           `json:"async_execution"`
	Config         map[string]any `json:"config"`
	OutputModel    map[string]any `json:"output_model"`
	CrewID         int            `json:"crew"`
	AgentID        *int           `json:"agent"`
}

// OrderPatch is the body of the partial order update.
type OrderPatch struct {
	Order int `json:"order"`
}

// Required field names, as they appear on the wire.
const (
	FieldName           = "name"
	FieldInstructions   = "instructions"
	FieldExpectedOutput = "expected_output"
)

// MissingFields lists required fields that are empty after trimming.
func (p *Payload) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(p.Instructions) == "" {
		missing = append(missing, FieldInstructions)
	}
	if strings.TrimSpace(p.ExpectedOutput) == "" {
		missing = append(missing, FieldExpectedOutput)
	}
	return missing
}

func (p *Payload) apply(t *Task) {
	t.Name = p.Name
	t.Instructions = p.Instructions
	t.ExpectedOutput = p.ExpectedOutput
	t.Order = p.Order
	t.HumanInput = p.HumanInput
	t.AsyncExecution = p.AsyncExecution
	t.Config = p.Config
	t.OutputModel = p.OutputModel
	t.CrewID = p.CrewID
	t.AgentID = p.AgentID
}

// SortByOrder sorts tasks by Order ascending. Tasks without an order go after
// all ordered ones and keep their relative sequence.
func SortByOrder(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].Order, tasks[j].Order
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}
