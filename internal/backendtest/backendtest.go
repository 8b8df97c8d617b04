// Package backendtest runs the reference backend on an httptest server.
package backendtest

import (
	"net/http/httptest"
	"testing"

	"github.com/kazz187/crewdesk/internal"
	"github.com/kazz187/crewdesk/internal/agent"
	agentrepo "github.com/kazz187/crewdesk/internal/agent/repositoryimpl"
	"github.com/kazz187/crewdesk/internal/config"
	"github.com/kazz187/crewdesk/internal/task"
	taskrepo "github.com/kazz187/crewdesk/internal/task/repositoryimpl"
	"github.com/kazz187/crewdesk/pkg/storage"
)

type Backend struct {
	*httptest.Server
	Storage *storage.MemoryStorage
	Tasks   task.Repository
	Agents  agent.Repository
}

// New starts a backend over in-memory storage. It is closed when the test
// ends.
func New(t testing.TB) *Backend {
	return NewWithEnv(t, &config.ServerEnv{})
}

func NewWithEnv(t testing.TB, env *config.ServerEnv) *Backend {
	t.Helper()
	st := storage.NewMemoryStorage()
	tasks := taskrepo.NewYAMLRepository(st)
	agents := agentrepo.NewYAMLRepository(st)
	srv := internal.NewServer(env, task.NewServer(tasks), agent.NewServer(agents))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &Backend{
		Server:  ts,
		Storage: st,
		Tasks:   tasks,
		Agents:  agents,
	}
}
