package grid

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/crewdesk/internal/eventbus"
	"github.com/kazz187/crewdesk/internal/task"
	"github.com/kazz187/crewdesk/pkg/panicerr"
)

type orderTarget struct {
	rowID    RowID
	serverID int
	order    int
}

// Move handles a finished drag. The trailing row stays last: from must be
// above it and to is clamped above it.
func (e *Engine) Move(ctx context.Context, from, to int) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	last := e.store.trailingIndex()
	if from < 0 || from >= last {
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot move row %d", ErrInvalidIndex, from)
	}
	to = clamp(to, 0, last-1)
	if from == to {
		e.mu.Unlock()
		return nil
	}
	e.store.move(from, to)
	e.store.renumber()
	ids := e.store.ids()
	targets := e.store.orderTargets()
	e.mu.Unlock()

	e.view.RefreshCells(ids, []Field{FieldOrder})
	return e.patchOrders(ctx, targets)
}

// patchOrders sends one order patch per target in parallel. Successful
// responses are reconciled and published even when others fail; failures
// produce a single notification and the local order is kept.
func (e *Engine) patchOrders(ctx context.Context, targets []orderTarget) error {
	if len(targets) == 0 {
		return nil
	}
	results := make([]*task.Task, len(targets))
	p := pool.New().WithMaxGoroutines(e.maxConcurrency).WithErrors().WithContext(ctx)
	for i, tg := range targets {
		patch := panicerr.SafeValue(func(ctx context.Context) (*task.Task, error) {
			return e.tasks.PatchTaskOrder(ctx, tg.serverID, tg.order)
		})
		p.Go(func(ctx context.Context) error {
			t, err := patch(ctx)
			if err != nil {
				return err
			}
			results[i] = t
			return nil
		})
	}
	err := p.Wait()

	e.mu.Lock()
	var confirmed []*task.Task
	var updated []Row
	failed := 0
	for i, t := range results {
		if t == nil {
			failed++
			continue
		}
		confirmed = append(confirmed, t)
		row, _ := e.store.find(targets[i].rowID)
		if row == nil || row.Order == nil || *row.Order != targets[i].order {
			// removed or moved again since the patch was sent
			continue
		}
		if t.Order != nil {
			row.Order = cloneInt(t.Order)
		}
		updated = append(updated, *row.clone())
	}
	e.mu.Unlock()

	if len(updated) > 0 {
		e.view.ApplyTransaction(Transaction{Update: updated})
	}
	for _, t := range confirmed {
		e.publish(eventbus.TaskUpdated, t.ID, t)
	}
	if err != nil {
		e.notifyError(ctx, RowID{}, fmt.Sprintf("failed to update the order of %d of %d tasks", failed, len(targets)), err)
		return err
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
