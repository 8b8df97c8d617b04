package agent

import "context"

type Repository interface {
	Create(ctx context.Context, a *Agent) error
	Get(ctx context.Context, id int) (*Agent, error)
	List(ctx context.Context, crewID int) ([]*Agent, error)
}
