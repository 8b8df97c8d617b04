package repositoryimpl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/crewdesk/internal/task"
	"github.com/kazz187/crewdesk/pkg/cerr"
	"github.com/kazz187/crewdesk/pkg/storage"
)

func TestYAMLRepository(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	repo := NewYAMLRepository(st)

	order := 1
	agentID := 7
	first := &task.Task{
		Name:           "Collect",
		Instructions:   "Collect sources",
		ExpectedOutput: "A list",
		Order:          &order,
		CrewID:         1,
		AgentID:        &agentID,
		Config:         map[string]any{"temperature": 0.2},
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, 1, first.ID)

	second := &task.Task{Name: "Other", CrewID: 2}
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, 2, second.ID)

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Collect", got.Name)
	assert.Equal(t, 1, *got.Order)
	assert.Equal(t, 7, *got.AgentID)
	assert.Equal(t, 0.2, got.Config["temperature"])

	crew1, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, crew1, 1)
	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got.Name = "Collect more"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Collect more", got.Name)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.True(t, cerr.IsCode(repo.Delete(ctx, 1), cerr.NotFound))
	assert.True(t, cerr.IsCode(repo.Update(ctx, &task.Task{ID: 1}), cerr.NotFound))

	// ids are never reused
	third := &task.Task{Name: "Third", CrewID: 1}
	require.NoError(t, repo.Create(ctx, third))
	assert.Equal(t, 3, third.ID)
}

func TestYAMLRepository_SequenceSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, NewYAMLRepository(st).Create(ctx, &task.Task{Name: "A", CrewID: 1}))
	next := &task.Task{Name: "B", CrewID: 1}
	require.NoError(t, NewYAMLRepository(st).Create(ctx, next))
	assert.Equal(t, 2, next.ID)

	tasks, err := NewYAMLRepository(st).List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}
