package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/crewdesk/internal/agent"
	"github.com/kazz187/crewdesk/internal/backendtest"
	"github.com/kazz187/crewdesk/internal/client"
	"github.com/kazz187/crewdesk/internal/grid"
	"github.com/kazz187/crewdesk/internal/task"
)

type testEnv struct {
	backend *backendtest.Backend
	session *gridSession
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newTestEnv(t *testing.T, diff bool, seed ...string) *testEnv {
	t.Helper()
	ctx := context.Background()
	b := backendtest.New(t)
	for i, name := range seed {
		order := i + 1
		require.NoError(t, b.Tasks.Create(ctx, &task.Task{
			Name:           name,
			Instructions:   name + " things",
			ExpectedOutput: "Notes",
			Order:          &order,
			CrewID:         1,
		}))
	}
	c, err := client.New(b.URL)
	require.NoError(t, err)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	s, err := openSession(ctx, c, 1, sessionConfig{out: out, errOut: errOut, diff: diff})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &testEnv{backend: b, session: s, out: out, errOut: errOut}
}

func (te *testEnv) stored(t *testing.T) []*task.Task {
	t.Helper()
	tasks, err := te.backend.Tasks.List(context.Background(), 1)
	require.NoError(t, err)
	task.SortByOrder(tasks)
	return tasks
}

func TestAddTask(t *testing.T) {
	ctx := context.Background()
	te := newTestEnv(t, false)
	writer := &agent.Agent{Role: "Writer", Goal: "Write", CrewID: 1}
	require.NoError(t, te.backend.Agents.Create(ctx, writer))
	// reload so the relation popup knows the agent
	require.NoError(t, te.session.engine.Load(ctx, 1))

	err := te.session.apply(func(e *grid.Engine) error {
		return addTask(ctx, e, newTask{
			Name:           "Summarize",
			Instructions:   "Summarize the doc",
			ExpectedOutput: "A paragraph",
			HumanInput:     true,
			AgentID:        writer.ID,
		})
	})
	require.NoError(t, err)

	stored := te.stored(t)
	require.Len(t, stored, 1)
	assert.Equal(t, "Summarize", stored[0].Name)
	assert.Equal(t, 1, *stored[0].Order)
	assert.True(t, stored[0].HumanInput)
	assert.False(t, stored[0].AsyncExecution)
	require.NotNil(t, stored[0].AgentID)
	assert.Equal(t, writer.ID, *stored[0].AgentID)

	out := te.out.String()
	assert.Contains(t, out, "task.added 1\n")
	assert.Contains(t, out, "task.updated 1\n")
	assert.Contains(t, out, "Summarize")
	assert.Contains(t, out, "Writer")
	assert.Equal(t, 2, te.session.engine.Len())
}

func TestAddTask_MissingValueKeepsDraft(t *testing.T) {
	te := newTestEnv(t, false)
	err := te.session.apply(func(e *grid.Engine) error {
		return addTask(context.Background(), e, newTask{Name: "Summarize", Instructions: "Summarize the doc"})
	})
	var verr *grid.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []grid.Field{grid.FieldExpectedOutput}, verr.Fields)
	assert.Empty(t, te.stored(t))
	assert.Contains(t, te.out.String(), "!")

	row, ok := te.session.engine.RowAt(0)
	require.True(t, ok)
	assert.True(t, row.ID.IsTemporary())
	assert.Equal(t, "Summarize", row.Name)
}

func TestEditTask(t *testing.T) {
	te := newTestEnv(t, true, "Collect", "Analyze")
	err := te.session.apply(func(e *grid.Engine) error {
		return editTask(context.Background(), e, "2", grid.FieldName, "Review")
	})
	require.NoError(t, err)

	stored := te.stored(t)
	assert.Equal(t, "Review", stored[1].Name)
	assert.Equal(t, 2, *stored[1].Order)

	out := te.out.String()
	assert.Contains(t, out, "task.updated 2\n")
	assert.Contains(t, out, "--- before\n")
	assert.Regexp(t, `(?m)^-2 .*Analyze`, out)
	assert.Regexp(t, `(?m)^\+2 .*Review`, out)
}

func TestEditTask_UnknownRow(t *testing.T) {
	te := newTestEnv(t, false, "Collect")
	err := editTask(context.Background(), te.session.engine, "99", grid.FieldName, "x")
	assert.ErrorIs(t, err, grid.ErrRowNotFound)

	err = editTask(context.Background(), te.session.engine, "nope", grid.FieldName, "x")
	assert.Error(t, err)
}

func TestToggleTask(t *testing.T) {
	te := newTestEnv(t, false, "Collect")
	require.NoError(t, toggleTask(context.Background(), te.session.engine, "1", grid.FieldAsyncExecution))
	assert.True(t, te.stored(t)[0].AsyncExecution)
}

func TestMove(t *testing.T) {
	te := newTestEnv(t, false, "Collect", "Analyze", "Write")
	err := te.session.apply(func(e *grid.Engine) error {
		return e.Move(context.Background(), 2, 0)
	})
	require.NoError(t, err)

	stored := te.stored(t)
	var names []string
	for i, s := range stored {
		names = append(names, s.Name)
		assert.Equal(t, i+1, *s.Order)
	}
	assert.Equal(t, []string{"Write", "Collect", "Analyze"}, names)
}

func TestCopyTask(t *testing.T) {
	te := newTestEnv(t, false, "Collect", "Analyze")
	require.NoError(t, copyTask(context.Background(), te.session.engine, "1", "", false))

	stored := te.stored(t)
	require.Len(t, stored, 3)
	assert.Equal(t, "Collect", stored[1].Name)
	assert.Equal(t, 3, stored[1].ID)
	assert.Equal(t, "Analyze", stored[2].Name)
	assert.Equal(t, 3, *stored[2].Order)
	assert.Equal(t, grid.SessionIdle, te.session.engine.Session())
}

func TestCopyTask_AboveTarget(t *testing.T) {
	te := newTestEnv(t, false, "Collect", "Analyze")
	require.NoError(t, copyTask(context.Background(), te.session.engine, "2", "1", true))

	stored := te.stored(t)
	require.Len(t, stored, 3)
	assert.Equal(t, "Analyze", stored[0].Name)
	assert.Equal(t, 3, stored[0].ID)
	assert.Equal(t, "Collect", stored[1].Name)
}

func TestDeleteTask(t *testing.T) {
	te := newTestEnv(t, false, "Collect", "Analyze")
	err := te.session.apply(func(e *grid.Engine) error {
		return deleteTask(context.Background(), e, "1")
	})
	require.NoError(t, err)

	stored := te.stored(t)
	require.Len(t, stored, 1)
	assert.Equal(t, "Analyze", stored[0].Name)
	assert.Equal(t, 1, *stored[0].Order)
	assert.Contains(t, te.out.String(), "task.deleted 1\n")
}

func TestDeleteTask_RollbackIsPrinted(t *testing.T) {
	te := newTestEnv(t, false, "Collect", "Analyze")
	require.NoError(t, te.backend.Tasks.Delete(context.Background(), 1))

	err := te.session.apply(func(e *grid.Engine) error {
		return deleteTask(context.Background(), e, "1")
	})
	require.Error(t, err)
	assert.Contains(t, te.errOut.String(), "error: failed to delete task")
	assert.Contains(t, te.out.String(), "Collect")
	assert.Equal(t, 0, te.session.engine.IndexOf(grid.ServerID(1)))
}

func TestAssignTask_Toggles(t *testing.T) {
	ctx := context.Background()
	te := newTestEnv(t, false, "Collect")
	writer := &agent.Agent{Role: "Writer", CrewID: 1}
	require.NoError(t, te.backend.Agents.Create(ctx, writer))
	require.NoError(t, te.session.engine.Load(ctx, 1))

	require.NoError(t, assignTask(ctx, te.session.engine, "1", writer.ID))
	require.NotNil(t, te.stored(t)[0].AgentID)

	require.NoError(t, assignTask(ctx, te.session.engine, "1", writer.ID))
	assert.Nil(t, te.stored(t)[0].AgentID)

	assert.ErrorIs(t, assignTask(ctx, te.session.engine, "1", 404), grid.ErrUnknownAgent)
}

func TestFilterAgents(t *testing.T) {
	ctx := context.Background()
	te := newTestEnv(t, false)
	for _, a := range []*agent.Agent{
		{Role: "Researcher", Goal: "Find sources", CrewID: 1},
		{Role: "Writer", Goal: "Draft the report", CrewID: 1},
		{Role: "Other", Goal: "Elsewhere", CrewID: 2},
	} {
		require.NoError(t, te.backend.Agents.Create(ctx, a))
	}
	require.NoError(t, te.session.engine.Load(ctx, 1))

	all, err := filterAgents(te.session.engine, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := filterAgents(te.session.engine, "REPORT")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Writer", found[0].Role)
	assert.Equal(t, grid.SessionIdle, te.session.engine.Session())

	var buf bytes.Buffer
	require.NoError(t, writeAgents(&buf, found, false))
	assert.Contains(t, buf.String(), "ROLE")
	assert.Contains(t, buf.String(), "Draft the report")
}
