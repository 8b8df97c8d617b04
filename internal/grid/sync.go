package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/kazz187/crewdesk/internal/eventbus"
	"github.com/kazz187/crewdesk/internal/task"
)

// CellEdit is a committed cell value.
type CellEdit struct {
	RowID RowID
	Field Field
	Old   any
	New   any
}

// ticket ties a request to the row identity and revision it was sent for.
// A response whose ticket no longer matches is not applied.
type ticket struct {
	id       RowID
	revision uint64
}

// CommitEdit applies a committed cell edit and persists the row: create for
// temporary rows, full update otherwise. Rows failing validation are flagged
// and nothing is sent. Failed requests are notified and returned; the typed
// value stays in place.
func (e *Engine) CommitEdit(ctx context.Context, edit CellEdit) error {
	col, ok := ColumnFor(edit.Field)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, edit.Field)
	}
	if col.Kind != ColumnText && col.Kind != ColumnToggle {
		return fmt.Errorf("%w: %s", ErrColumnNotEditable, edit.Field)
	}
	if reflect.DeepEqual(edit.Old, edit.New) {
		return nil
	}

	e.mu.Lock()
	row, _ := e.store.find(edit.RowID)
	if row == nil {
		e.mu.Unlock()
		return ErrRowNotFound
	}
	if err := row.set(edit.Field, edit.New); err != nil {
		e.mu.Unlock()
		return err
	}
	row.revision++
	e.mu.Unlock()

	return e.persist(ctx, edit.RowID)
}

// Toggle flips a boolean column and persists the row.
func (e *Engine) Toggle(ctx context.Context, id RowID, f Field) error {
	col, ok := ColumnFor(f)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if col.Kind != ColumnToggle {
		return fmt.Errorf("%w: %s is not a toggle", ErrColumnNotEditable, f)
	}

	e.mu.Lock()
	row, _ := e.store.find(id)
	if row == nil {
		e.mu.Unlock()
		return ErrRowNotFound
	}
	cur, _ := row.Value(f).(bool)
	if err := row.set(f, !cur); err != nil {
		e.mu.Unlock()
		return err
	}
	row.revision++
	e.mu.Unlock()

	e.view.RefreshCells([]RowID{id}, []Field{f})
	return e.persist(ctx, id)
}

// persist validates the row and sends it. While a request for the row is in
// flight the edit is left to the revision check of that request.
func (e *Engine) persist(ctx context.Context, id RowID) error {
	e.mu.Lock()
	row, _ := e.store.find(id)
	if row == nil {
		e.mu.Unlock()
		return ErrRowNotFound
	}
	missing := row.missingFields()
	changed := row.setWarnings(missing)
	if len(missing) > 0 {
		e.mu.Unlock()
		e.refreshWarnings(id, changed)
		return &ValidationError{RowID: id, Fields: missing}
	}
	if row.State == StatePendingCreate || row.State == StatePendingUpdate {
		e.mu.Unlock()
		e.refreshWarnings(id, changed)
		return nil
	}

	tk := ticket{id: id, revision: row.revision}
	p := row.payload(e.crewID)
	serverID, persisted := id.Server()
	if persisted {
		row.State = StatePendingUpdate
	} else {
		row.State = StatePendingCreate
	}
	e.mu.Unlock()
	e.refreshWarnings(id, changed)

	if persisted {
		return e.update(ctx, tk, serverID, p)
	}
	return e.create(ctx, tk, p)
}

func (e *Engine) refreshWarnings(id RowID, fields []Field) {
	if len(fields) == 0 {
		return
	}
	e.view.RefreshCells([]RowID{id}, fields)
}

func (e *Engine) create(ctx context.Context, tk ticket, p *task.Payload) error {
	t, err := e.tasks.CreateTask(ctx, p)
	if err != nil {
		e.mu.Lock()
		row, _ := e.store.find(tk.id)
		retry := false
		if row != nil {
			row.State = StateDraft
			retry = row.revision != tk.revision
		}
		e.mu.Unlock()
		e.notifyError(ctx, tk.id, "failed to create task", err)
		if retry {
			// the newer values were committed after this attempt started
			if ferr := e.followUp(ctx, tk.id); ferr != nil {
				return errors.Join(err, ferr)
			}
		}
		return err
	}
	return e.created(ctx, tk, t, true)
}

// created reconciles the row with a successful create response. With
// patchOrder set, a row that moved while the create was in flight gets its
// local order patched.
func (e *Engine) created(ctx context.Context, tk ticket, t *task.Task, patchOrder bool) error {
	e.mu.Lock()
	row, idx := e.store.find(tk.id)
	if row == nil {
		e.mu.Unlock()
		e.deleteOrphan(ctx, tk.id, t.ID)
		return nil
	}
	wasTrailing := idx == e.store.trailingIndex()
	localOrder := cloneInt(row.Order)
	Reconcile(row, t.ID)
	stale := row.revision != tk.revision
	if !stale {
		row.applyTask(t, e.agentIndex)
		row.Order = localOrder
	}
	var targets []orderTarget
	if patchOrder && localOrder != nil && (t.Order == nil || *t.Order != *localOrder) {
		targets = append(targets, orderTarget{rowID: row.ID, serverID: t.ID, order: *localOrder})
	}
	tx := Transaction{
		Rekey:  []Rekey{{From: tk.id, To: row.ID}},
		Update: []Row{*row.clone()},
	}
	if wasTrailing {
		if tail := e.store.ensureTrailing(); tail != nil {
			tx.Add = append(tx.Add, IndexedRow{Index: e.store.trailingIndex(), Row: *tail.clone()})
		}
	}
	e.session.rekey(tk.id, row.ID)
	id := row.ID
	e.mu.Unlock()

	e.view.ApplyTransaction(tx)
	e.publish(eventbus.TaskAdded, t.ID, t)

	var errs []error
	if stale {
		errs = append(errs, e.followUp(ctx, id))
	}
	if len(targets) > 0 {
		errs = append(errs, e.patchOrders(ctx, targets))
	}
	return errors.Join(errs...)
}

func (e *Engine) update(ctx context.Context, tk ticket, serverID int, p *task.Payload) error {
	t, err := e.tasks.UpdateTask(ctx, serverID, p)

	e.mu.Lock()
	row, _ := e.store.find(tk.id)
	if err != nil {
		retry := false
		if row != nil {
			row.State = StateUnsynced
			retry = row.revision != tk.revision
		}
		e.mu.Unlock()
		e.notifyError(ctx, tk.id, "failed to update task", err)
		if retry {
			if ferr := e.followUp(ctx, tk.id); ferr != nil {
				return errors.Join(err, ferr)
			}
		}
		return err
	}
	if row == nil {
		e.mu.Unlock()
		slog.DebugContext(ctx, "discarding update response for a removed row", "task_id", serverID)
		return nil
	}
	if row.revision != tk.revision {
		// a newer edit arrived; send it instead of applying this response
		row.State = StatePersisted
		e.mu.Unlock()
		return e.followUp(ctx, tk.id)
	}
	order := cloneInt(row.Order)
	row.applyTask(t, e.agentIndex)
	row.Order = order
	row.State = StatePersisted
	updated := *row.clone()
	e.mu.Unlock()

	e.view.ApplyTransaction(Transaction{Update: []Row{updated}})
	e.publish(eventbus.TaskUpdated, t.ID, t)
	return nil
}

// followUp persists edits made while an earlier request was in flight.
// Validation failures were already flagged on the row.
func (e *Engine) followUp(ctx context.Context, id RowID) error {
	err := e.persist(ctx, id)
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrRowNotFound) {
		return nil
	}
	return err
}

// deleteOrphan removes a task whose create finished after its row was
// deleted locally.
func (e *Engine) deleteOrphan(ctx context.Context, tempID RowID, serverID int) {
	slog.InfoContext(ctx, "deleting task created for a removed row", "row_id", tempID.String(), "task_id", serverID)
	if err := e.tasks.DeleteTask(ctx, serverID); err != nil {
		e.notifyError(ctx, tempID, "failed to delete orphaned task", err)
	}
}
