package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kazz187/crewdesk/internal/task"
)

// TaskClient maps the /tasks/ endpoints.
type TaskClient struct {
	c *Client
}

func NewTaskClient(c *Client) *TaskClient {
	return &TaskClient{c: c}
}

func taskPath(id int) string {
	return "/tasks/" + strconv.Itoa(id) + "/"
}

// ListTasks lists the crew's tasks.
func (tc *TaskClient) ListTasks(ctx context.Context, crewID int) ([]*task.Task, error) {
	var tasks []*task.Task
	q := url.Values{"crew": {strconv.Itoa(crewID)}}
	if err := tc.c.do(ctx, http.MethodGet, "/tasks/", q, nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a task; the response carries the server-assigned ID.
func (tc *TaskClient) CreateTask(ctx context.Context, p *task.Payload) (*task.Task, error) {
	var t task.Task
	if err := tc.c.do(ctx, http.MethodPost, "/tasks/", nil, p, &t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &t, nil
}

// UpdateTask replaces every payload field of the task.
func (tc *TaskClient) UpdateTask(ctx context.Context, id int, p *task.Payload) (*task.Task, error) {
	var t task.Task
	if err := tc.c.do(ctx, http.MethodPut, taskPath(id), nil, p, &t); err != nil {
		return nil, fmt.Errorf("failed to update task %d: %w", id, err)
	}
	return &t, nil
}

// PatchTaskOrder updates only the order of the task.
func (tc *TaskClient) PatchTaskOrder(ctx context.Context, id, order int) (*task.Task, error) {
	var t task.Task
	if err := tc.c.do(ctx, http.MethodPatch, taskPath(id), nil, &task.OrderPatch{Order: order}, &t); err != nil {
		return nil, fmt.Errorf("failed to patch order of task %d: %w", id, err)
	}
	return &t, nil
}

func (tc *TaskClient) DeleteTask(ctx context.Context, id int) error {
	if err := tc.c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}
