package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/crewdesk/internal/task"
	"github.com/kazz187/crewdesk/pkg/cerr"
	"github.com/kazz187/crewdesk/pkg/storage"
)

const (
	tasksPrefix  = "tasks"
	sequencePath = "sequences/tasks.yaml"
)

type YAMLRepository struct {
	storage storage.Storage
	// mu serializes ID allocation; storage only guards single objects.
	mu sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id int) string {
	return fmt.Sprintf("%s/%08d.yaml", tasksPrefix, id)
}

type sequence struct {
	Last int `yaml:"last"`
}

func (r *YAMLRepository) nextID(ctx context.Context) (int, error) {
	var seq sequence
	data, err := r.storage.Read(ctx, sequencePath)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return 0, cerr.WrapStorageReadError("task sequence", err)
	default:
		if err := yaml.Unmarshal(data, &seq); err != nil {
			return 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task sequence: %w", err))
		}
	}
	seq.Last++
	out, err := yaml.Marshal(&seq)
	if err != nil {
		return 0, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task sequence: %w", err))
	}
	if err := r.storage.Write(ctx, sequencePath, out); err != nil {
		return 0, cerr.WrapStorageWriteError("task sequence", err)
	}
	return seq.Last, nil
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}
	t.ID = id
	return r.write(ctx, t)
}

func (r *YAMLRepository) Get(ctx context.Context, id int) (*task.Task, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	var t task.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task: %w", err))
	}
	return &t, nil
}

// List returns the crew's tasks in ID order. Ordering by the order column is
// left to the caller.
func (r *YAMLRepository) List(ctx context.Context, crewID int) ([]*task.Task, error) {
	paths, err := r.storage.List(ctx, tasksPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}

	sort.Strings(paths)

	all := []*task.Task{}
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var t task.Task
		if err := yaml.Unmarshal(data, &t); err != nil {
			continue
		}
		if crewID != 0 && t.CrewID != crewID {
			continue
		}
		all = append(all, &t)
	}
	return all, nil
}

func (r *YAMLRepository) Update(ctx context.Context, t *task.Task) error {
	exists, err := r.storage.Exists(ctx, path(t.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return r.write(ctx, t)
}

func (r *YAMLRepository) Delete(ctx context.Context, id int) error {
	exists, err := r.storage.Exists(ctx, path(id))
	if err != nil {
		return cerr.WrapStorageDeleteError("task", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "task "+strconv.Itoa(id)+" not found", nil)
	}
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, t *task.Task) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, path(t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}
