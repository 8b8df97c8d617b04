package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/crewdesk/internal/agent"
	"github.com/kazz187/crewdesk/pkg/cerr"
	"github.com/kazz187/crewdesk/pkg/storage"
)

const (
	agentsPrefix = "agents"
	sequencePath = "sequences/agents.yaml"
)

type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id int) string {
	return fmt.Sprintf("%s/%08d.yaml", agentsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, a *agent.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var seq struct {
		Last int `yaml:"last"`
	}
	data, err := r.storage.Read(ctx, sequencePath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return cerr.WrapStorageReadError("agent sequence", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &seq); err != nil {
			return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal agent sequence: %w", err))
		}
	}
	seq.Last++
	seqData, err := yaml.Marshal(&seq)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal agent sequence: %w", err))
	}
	if err := r.storage.Write(ctx, sequencePath, seqData); err != nil {
		return cerr.WrapStorageWriteError("agent sequence", err)
	}

	a.ID = seq.Last
	out, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal agent: %w", err))
	}
	if err := r.storage.Write(ctx, path(a.ID), out); err != nil {
		return cerr.WrapStorageWriteError("agent", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id int) (*agent.Agent, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("agent", err)
	}
	var a agent.Agent
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal agent: %w", err))
	}
	return &a, nil
}

func (r *YAMLRepository) List(ctx context.Context, crewID int) ([]*agent.Agent, error) {
	paths, err := r.storage.List(ctx, agentsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("agents", err)
	}
	sort.Strings(paths)

	all := []*agent.Agent{}
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var a agent.Agent
		if err := yaml.Unmarshal(data, &a); err != nil {
			continue
		}
		if crewID != 0 && a.CrewID != crewID {
			continue
		}
		all = append(all, &a)
	}
	return all, nil
}
