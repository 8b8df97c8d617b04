package grid

import (
	"context"
	"fmt"
	"sync"

	"github.com/kazz187/crewdesk/internal/agent"
	"github.com/kazz187/crewdesk/internal/eventbus"
	"github.com/kazz187/crewdesk/internal/task"
)

// TaskAPI is the task backend. client.TaskClient implements it.
type TaskAPI interface {
	ListTasks(ctx context.Context, crewID int) ([]*task.Task, error)
	CreateTask(ctx context.Context, p *task.Payload) (*task.Task, error)
	UpdateTask(ctx context.Context, id int, p *task.Payload) (*task.Task, error)
	PatchTaskOrder(ctx context.Context, id, order int) (*task.Task, error)
	DeleteTask(ctx context.Context, id int) error
}

// AgentAPI provides the relation candidates.
type AgentAPI interface {
	ListAgents(ctx context.Context, crewID int) ([]*agent.Agent, error)
}

// Publisher receives added/updated/deleted signals after the backend
// confirmed a change. *eventbus.Bus implements it.
type Publisher interface {
	PublishNew(eventType eventbus.EventType, taskID int, t *task.Task)
}

const defaultMaxConcurrency = 8

// Engine keeps the grid rows in sync with the backend. Gestures block until
// their requests finish; they may be called from separate goroutines. The
// mutex is never held across a request.
type Engine struct {
	tasks          TaskAPI
	agents         AgentAPI
	view           View
	notifier       Notifier
	events         Publisher
	maxConcurrency int

	mu         sync.Mutex
	store      store
	crewID     int
	loaded     bool
	candidates []*AgentSnapshot
	agentIndex map[int]*AgentSnapshot
	session    session
}

type Option func(*Engine)

func WithAgentAPI(api AgentAPI) Option {
	return func(e *Engine) {
		e.agents = api
	}
}

func WithView(v View) Option {
	return func(e *Engine) {
		e.view = v
	}
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.events = p
	}
}

// WithMaxConcurrency bounds the parallel order patches.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

func NewEngine(tasks TaskAPI, opts ...Option) *Engine {
	e := &Engine{
		tasks:          tasks,
		view:           nopView{},
		notifier:       SlogNotifier{},
		maxConcurrency: defaultMaxConcurrency,
		agentIndex:     map[int]*AgentSnapshot{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the rows with the tasks of crewID and appends the trailing
// empty row.
func (e *Engine) Load(ctx context.Context, crewID int) error {
	tasks, err := e.tasks.ListTasks(ctx, crewID)
	if err != nil {
		e.notifyError(ctx, RowID{}, "failed to load tasks", err)
		return err
	}
	var agents []*agent.Agent
	if e.agents != nil {
		agents, err = e.agents.ListAgents(ctx, crewID)
		if err != nil {
			e.notifyError(ctx, RowID{}, "failed to load agents", err)
			return err
		}
	}

	candidates := make([]*AgentSnapshot, 0, len(agents))
	index := make(map[int]*AgentSnapshot, len(agents))
	for _, a := range agents {
		snap := snapshotFromAgent(a)
		candidates = append(candidates, snap)
		index[a.ID] = snap
	}
	task.SortByOrder(tasks)
	rows := make([]*Row, 0, len(tasks)+1)
	for _, t := range tasks {
		rows = append(rows, rowFromTask(t, index))
	}

	e.mu.Lock()
	removed := e.store.ids()
	e.store.rows = rows
	e.store.ensureTrailing()
	e.crewID = crewID
	e.loaded = true
	e.candidates = candidates
	e.agentIndex = index
	e.session = session{}
	added := make([]IndexedRow, 0, e.store.len())
	for i, r := range e.store.snapshot() {
		added = append(added, IndexedRow{Index: i, Row: r})
	}
	e.mu.Unlock()

	e.view.ApplyTransaction(Transaction{Remove: removed, Add: added})
	return nil
}

func (e *Engine) CrewID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.crewID
}

// Rows returns a copy of the rows, top to bottom.
func (e *Engine) Rows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.snapshot()
}

func (e *Engine) Row(id RowID) (Row, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, _ := e.store.find(id)
	if r == nil {
		return Row{}, false
	}
	return *r.clone(), true
}

// RowAt returns the row at index i.
func (e *Engine) RowAt(i int) (Row, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.store.at(i)
	if r == nil {
		return Row{}, false
	}
	return *r.clone(), true
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.len()
}

// IndexOf returns the position of id, or -1.
func (e *Engine) IndexOf(id RowID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.indexOf(id)
}

// Activate dispatches a cell activation by column kind.
func (e *Engine) Activate(ctx context.Context, id RowID, f Field) error {
	col, ok := ColumnFor(f)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	switch col.Kind {
	case ColumnText:
		// the view opens its own editor and reports back through CommitEdit
		if _, ok := e.Row(id); !ok {
			return ErrRowNotFound
		}
		return nil
	case ColumnToggle:
		return e.Toggle(ctx, id, f)
	case ColumnRelation:
		return e.OpenRelation(id)
	case ColumnReadOnly:
		return fmt.Errorf("%w: %s", ErrColumnNotEditable, f)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
}

func (e *Engine) publish(eventType eventbus.EventType, taskID int, t *task.Task) {
	if e.events == nil {
		return
	}
	e.events.PublishNew(eventType, taskID, t)
}

func (e *Engine) notifyError(ctx context.Context, id RowID, msg string, err error) {
	e.notifier.Notify(ctx, Notification{
		Severity: SeverityError,
		Message:  msg,
		RowID:    id,
		Err:      err,
	})
}
