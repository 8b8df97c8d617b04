package grid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kazz187/crewdesk/internal/agent"
	"github.com/kazz187/crewdesk/internal/eventbus"
	"github.com/kazz187/crewdesk/internal/task"
)

var errBackend = errors.New("backend rejected the request")

type apiCall struct {
	Method  string
	TaskID  int
	Payload *task.Payload
	Order   int
}

// fakeTaskAPI is an in-memory backend with failure injection. Gates, when
// set, hold a call until the test releases them.
type fakeTaskAPI struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]*task.Task
	calls  []apiCall

	createErr error
	updateErr error
	deleteErr error
	patchErr  map[int]error

	createGate *gate
	updateGate *gate
	onPatch    func(id, order int)
}

func newFakeTaskAPI() *fakeTaskAPI {
	return &fakeTaskAPI{
		nextID:   1,
		tasks:    map[int]*task.Task{},
		patchErr: map[int]error{},
	}
}

// seed stores persisted tasks named "Task 1".."Task n" with orders 1..n.
func (f *fakeTaskAPI) seed(n int) {
	for i := 1; i <= n; i++ {
		id := f.nextID
		f.nextID++
		f.tasks[id] = &task.Task{
			ID:             id,
			Name:           fmt.Sprintf("Task %d", i),
			Instructions:   fmt.Sprintf("Do step %d", i),
			ExpectedOutput: "Done",
			Order:          intPtr(i),
			CrewID:         1,
		}
	}
}

func (f *fakeTaskAPI) record(c apiCall) {
	f.calls = append(f.calls, c)
}

func (f *fakeTaskAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeTaskAPI) callsOf(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTaskAPI) stored(id int) *task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

func (f *fakeTaskAPI) ListTasks(_ context.Context, crewID int) ([]*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(apiCall{Method: "LIST"})
	var out []*task.Task
	for _, t := range f.tasks {
		if t.CrewID == crewID {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTaskAPI) CreateTask(_ context.Context, p *task.Payload) (*task.Task, error) {
	f.mu.Lock()
	f.record(apiCall{Method: "POST", Payload: p})
	g := f.createGate
	f.mu.Unlock()
	g.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := f.nextID
	f.nextID++
	t := taskFromPayload(id, p)
	if t.Order == nil {
		t.Order = intPtr(len(f.tasks) + 1)
	}
	f.tasks[id] = t
	c := *t
	return &c, nil
}

func (f *fakeTaskAPI) UpdateTask(_ context.Context, id int, p *task.Payload) (*task.Task, error) {
	f.mu.Lock()
	f.record(apiCall{Method: "PUT", TaskID: id, Payload: p})
	g := f.updateGate
	f.mu.Unlock()
	g.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.tasks[id]; !ok {
		return nil, fmt.Errorf("task %d not found", id)
	}
	t := taskFromPayload(id, p)
	f.tasks[id] = t
	c := *t
	return &c, nil
}

func (f *fakeTaskAPI) PatchTaskOrder(_ context.Context, id, order int) (*task.Task, error) {
	f.mu.Lock()
	f.record(apiCall{Method: "PATCH", TaskID: id, Order: order})
	hook := f.onPatch
	f.mu.Unlock()
	if hook != nil {
		hook(id, order)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.patchErr[id]; err != nil {
		return nil, err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d not found", id)
	}
	t.Order = intPtr(order)
	c := *t
	return &c, nil
}

func (f *fakeTaskAPI) DeleteTask(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(apiCall{Method: "DELETE", TaskID: id})
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.tasks, id)
	return nil
}

func taskFromPayload(id int, p *task.Payload) *task.Task {
	return &task.Task{
		ID:             id,
		Name:           p.Name,
		Instructions:   p.Instructions,
		ExpectedOutput: p.ExpectedOutput,
		Order:          cloneInt(p.Order),
		HumanInput:     p.HumanInput,
		AsyncExecution: p.AsyncExecution,
		Config:         p.Config,
		OutputModel:    p.OutputModel,
		CrewID:         p.CrewID,
		AgentID:        cloneInt(p.AgentID),
	}
}

// gate blocks a call until released. entered is signalled once per call.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gate) wait() {
	if g == nil {
		return
	}
	g.entered <- struct{}{}
	<-g.release
}

func (g *gate) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("call did not reach the backend")
	}
}

type fakeAgentAPI struct {
	agents []*agent.Agent
}

func (f *fakeAgentAPI) ListAgents(_ context.Context, crewID int) ([]*agent.Agent, error) {
	var out []*agent.Agent
	for _, a := range f.agents {
		if a.CrewID == crewID {
			out = append(out, a)
		}
	}
	return out, nil
}

type refresh struct {
	IDs    []RowID
	Fields []Field
}

type recordingView struct {
	mu        sync.Mutex
	txs       []Transaction
	refreshes []refresh
}

func (v *recordingView) ApplyTransaction(tx Transaction) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.txs = append(v.txs, tx)
}

func (v *recordingView) RefreshCells(ids []RowID, fields []Field) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshes = append(v.refreshes, refresh{IDs: ids, Fields: fields})
}

func (v *recordingView) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.txs = nil
	v.refreshes = nil
}

func (v *recordingView) refreshed() []refresh {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]refresh(nil), v.refreshes...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notes...)
}

type harness struct {
	engine   *Engine
	api      *fakeTaskAPI
	view     *recordingView
	notifier *recordingNotifier
	events   <-chan *eventbus.Event
}

func newHarness(t *testing.T, api *fakeTaskAPI, agents ...*agent.Agent) *harness {
	t.Helper()
	bus := eventbus.New()
	subID, events := bus.Subscribe(256)
	t.Cleanup(func() { bus.Unsubscribe(subID) })

	h := &harness{
		api:      api,
		view:     &recordingView{},
		notifier: &recordingNotifier{},
		events:   events,
	}
	h.engine = NewEngine(api,
		WithAgentAPI(&fakeAgentAPI{agents: agents}),
		WithView(h.view),
		WithNotifier(h.notifier),
		WithPublisher(bus),
	)
	require.NoError(t, h.engine.Load(context.Background(), 1))
	return h
}

// drain returns the events published so far.
func (h *harness) drain() []*eventbus.Event {
	var out []*eventbus.Event
	for {
		select {
		case ev := <-h.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (h *harness) trailing(t *testing.T) Row {
	t.Helper()
	rows := h.engine.Rows()
	require.NotEmpty(t, rows)
	last := rows[len(rows)-1]
	require.True(t, last.ID.IsTemporary())
	return last
}

// fill commits the three required fields into a row. Only the last commit
// can reach the backend.
func (h *harness) fill(t *testing.T, id RowID, name, instructions, expected string) error {
	t.Helper()
	ctx := context.Background()
	var verr *ValidationError
	err := h.engine.CommitEdit(ctx, CellEdit{RowID: id, Field: FieldName, Old: "", New: name})
	require.ErrorAs(t, err, &verr)
	err = h.engine.CommitEdit(ctx, CellEdit{RowID: id, Field: FieldInstructions, Old: "", New: instructions})
	require.ErrorAs(t, err, &verr)
	return h.engine.CommitEdit(ctx, CellEdit{RowID: id, Field: FieldExpectedOutput, Old: "", New: expected})
}

func orders(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		if r.Order == nil {
			out[i] = 0
			continue
		}
		out[i] = *r.Order
	}
	return out
}

func persistedOrders(rows []Row) []int {
	var out []int
	for _, r := range rows {
		if _, ok := r.ID.Server(); ok && r.Order != nil {
			out = append(out, *r.Order)
		}
	}
	return out
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}
