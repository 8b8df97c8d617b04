package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/kazz187/crewdesk/internal"
	"github.com/kazz187/crewdesk/internal/agent"
	agentrepo "github.com/kazz187/crewdesk/internal/agent/repositoryimpl"
	"github.com/kazz187/crewdesk/internal/config"
	"github.com/kazz187/crewdesk/internal/task"
	taskrepo "github.com/kazz187/crewdesk/internal/task/repositoryimpl"
	"github.com/kazz187/crewdesk/pkg/storage"
)

func newStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, error) {
	switch env.Type {
	case "s3":
		st, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return st, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		st, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}
		return st, nil
	}
}

func runServe(env *config.Env) error {
	store, err := newStorage(context.Background(), &env.StorageEnv)
	if err != nil {
		return err
	}
	slog.Info("storage ready", "type", env.StorageEnv.Type)

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	agentRepo := agentrepo.NewYAMLRepository(store)

	// Setup servers
	taskServer := task.NewServer(taskRepo)
	agentServer := agent.NewServer(agentRepo)
	srv := server.NewServer(&env.ServerEnv, taskServer, agentServer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
