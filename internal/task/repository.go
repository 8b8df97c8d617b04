package task

import "context"

type Repository interface {
	// Create stores t under a freshly allocated ID and writes the ID back.
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id int) (*Task, error)
	List(ctx context.Context, crewID int) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int) error
}
