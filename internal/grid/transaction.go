package grid

import (
	"context"
	"errors"

	"github.com/kazz187/crewdesk/internal/eventbus"
)

type SessionState int

const (
	SessionIdle SessionState = iota
	SessionRowSelected
	SessionOverlayOpen
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRowSelected:
		return "row_selected"
	case SessionOverlayOpen:
		return "overlay_open"
	default:
		return "unknown"
	}
}

// session holds the context menu selection, the relation overlay and the
// clipboard. The clipboard survives closing the menu.
type session struct {
	state     SessionState
	selected  RowID
	overlay   RowID
	query     string
	clipboard *Row
}

func (s *session) close() {
	s.state = SessionIdle
	s.selected = RowID{}
	s.overlay = RowID{}
	s.query = ""
}

func (s *session) rekey(from, to RowID) {
	if s.selected == from {
		s.selected = to
	}
	if s.overlay == from {
		s.overlay = to
	}
}

func (s *session) forget(id RowID) {
	if s.selected == id || s.overlay == id {
		s.close()
	}
}

func (e *Engine) Session() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.state
}

// Selected returns the row the context menu was opened on.
func (e *Engine) Selected() (RowID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.state != SessionRowSelected {
		return RowID{}, false
	}
	return e.session.selected, true
}

// HasClipboard reports whether a row was copied.
func (e *Engine) HasClipboard() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clipboard != nil
}

// OpenContextMenu selects id. Any previous selection or overlay is dropped.
func (e *Engine) OpenContextMenu(id RowID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.indexOf(id) < 0 {
		return ErrRowNotFound
	}
	e.session.close()
	e.session.state = SessionRowSelected
	e.session.selected = id
	return nil
}

func (e *Engine) Escape() {
	e.mu.Lock()
	e.session.close()
	e.mu.Unlock()
}

func (e *Engine) OutsideClick() {
	e.Escape()
}

// selectedRow must be called with the lock held.
func (e *Engine) selectedRow() (*Row, int, error) {
	if e.session.state != SessionRowSelected {
		return nil, -1, ErrNoSelection
	}
	row, idx := e.store.find(e.session.selected)
	if row == nil {
		e.session.close()
		return nil, -1, ErrRowNotFound
	}
	return row, idx, nil
}

// Copy stores the field values of the selected row.
func (e *Engine) Copy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, _, err := e.selectedRow()
	if err != nil {
		return err
	}
	e.session.clipboard = row.cloneValues()
	e.session.close()
	return nil
}

func (e *Engine) PasteAbove(ctx context.Context) (RowID, error) {
	return e.paste(ctx, false)
}

func (e *Engine) PasteBelow(ctx context.Context) (RowID, error) {
	return e.paste(ctx, true)
}

// paste inserts the clipboard as a new row and creates it. A failed create
// removes the row again and restores the previous orders.
func (e *Engine) paste(ctx context.Context, below bool) (RowID, error) {
	e.mu.Lock()
	_, idx, err := e.selectedRow()
	if err != nil {
		e.mu.Unlock()
		return RowID{}, err
	}
	if e.session.clipboard == nil {
		e.mu.Unlock()
		return RowID{}, ErrClipboardEmpty
	}
	pasted := e.session.clipboard.cloneValues()
	e.session.close()
	pasted.ID = NewTemporaryID()
	if missing := pasted.missingFields(); len(missing) > 0 {
		e.mu.Unlock()
		verr := &ValidationError{RowID: pasted.ID, Fields: missing}
		e.notifyError(ctx, RowID{}, "cannot paste a task with empty required fields", verr)
		return RowID{}, verr
	}
	at := e.insertIndex(idx, below)
	prev := e.store.orders()
	e.store.insert(at, pasted)
	e.store.renumber()
	pasted.State = StatePendingCreate
	tk := ticket{id: pasted.ID, revision: pasted.revision}
	p := pasted.payload(e.crewID)
	added := IndexedRow{Index: at, Row: *pasted.clone()}
	ids := e.store.ids()
	e.mu.Unlock()

	e.view.ApplyTransaction(Transaction{Add: []IndexedRow{added}})
	e.view.RefreshCells(ids, []Field{FieldOrder})

	t, err := e.tasks.CreateTask(ctx, p)
	if err != nil {
		e.mu.Lock()
		_, i := e.store.find(tk.id)
		if i >= 0 {
			e.store.remove(i)
			e.store.restoreOrders(prev)
		}
		ids := e.store.ids()
		e.mu.Unlock()
		if i >= 0 {
			e.view.ApplyTransaction(Transaction{Remove: []RowID{tk.id}})
			e.view.RefreshCells(ids, []Field{FieldOrder})
		}
		e.notifyError(ctx, tk.id, "failed to paste task", err)
		return RowID{}, err
	}

	createErr := e.created(ctx, tk, t, false)
	e.mu.Lock()
	targets := e.store.orderTargets()
	e.mu.Unlock()
	return ServerID(t.ID), errors.Join(createErr, e.patchOrders(ctx, targets))
}

func (e *Engine) InsertEmptyAbove(ctx context.Context) (RowID, error) {
	return e.insertEmpty(ctx, false)
}

func (e *Engine) InsertEmptyBelow(ctx context.Context) (RowID, error) {
	return e.insertEmpty(ctx, true)
}

// insertEmpty adds a draft row next to the selection. Nothing is created
// until a field is committed into it; rows below are renumbered.
func (e *Engine) insertEmpty(ctx context.Context, below bool) (RowID, error) {
	e.mu.Lock()
	_, idx, err := e.selectedRow()
	if err != nil {
		e.mu.Unlock()
		return RowID{}, err
	}
	e.session.close()
	at := e.insertIndex(idx, below)
	r := newDraftRow()
	e.store.insert(at, r)
	e.store.renumber()
	added := IndexedRow{Index: at, Row: *r.clone()}
	ids := e.store.ids()
	targets := e.store.orderTargets()
	e.mu.Unlock()

	e.view.ApplyTransaction(Transaction{Add: []IndexedRow{added}})
	e.view.RefreshCells(ids, []Field{FieldOrder})
	return r.ID, e.patchOrders(ctx, targets)
}

// insertIndex keeps inserted rows above the trailing row.
func (e *Engine) insertIndex(idx int, below bool) int {
	at := idx
	if below {
		at++
	}
	return clamp(at, 0, e.store.trailingIndex())
}

func (e *Engine) DeleteSelected(ctx context.Context) error {
	e.mu.Lock()
	row, _, err := e.selectedRow()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	id := row.ID
	e.session.close()
	e.mu.Unlock()
	return e.DeleteRow(ctx, id)
}

// DeleteRow removes a row. Temporary rows go away locally without any
// request. Persisted rows are deleted on the backend and put back at their
// index if that fails.
func (e *Engine) DeleteRow(ctx context.Context, id RowID) error {
	e.mu.Lock()
	row, idx := e.store.find(id)
	if row == nil {
		e.mu.Unlock()
		return ErrRowNotFound
	}
	e.session.forget(id)
	prev := e.store.orders()
	e.store.remove(idx)
	e.store.renumber()
	tx := Transaction{Remove: []RowID{id}}
	if tail := e.store.ensureTrailing(); tail != nil {
		tx.Add = append(tx.Add, IndexedRow{Index: e.store.trailingIndex(), Row: *tail.clone()})
	}
	ids := e.store.ids()
	e.mu.Unlock()

	e.view.ApplyTransaction(tx)
	e.view.RefreshCells(ids, []Field{FieldOrder})

	serverID, persisted := id.Server()
	if !persisted {
		// drafts never reach the backend, but rows below them shift up
		e.mu.Lock()
		targets := e.store.changedOrderTargets(prev)
		e.mu.Unlock()
		return e.patchOrders(ctx, targets)
	}
	if err := e.tasks.DeleteTask(ctx, serverID); err != nil {
		e.mu.Lock()
		at := clamp(idx, 0, e.store.trailingIndex())
		e.store.insert(at, row)
		e.store.restoreOrders(prev)
		restored := IndexedRow{Index: at, Row: *row.clone()}
		ids := e.store.ids()
		e.mu.Unlock()

		e.view.ApplyTransaction(Transaction{Add: []IndexedRow{restored}})
		e.view.RefreshCells(ids, []Field{FieldOrder})
		e.notifyError(ctx, id, "failed to delete task", err)
		return err
	}
	e.publish(eventbus.TaskDeleted, serverID, nil)

	e.mu.Lock()
	targets := e.store.orderTargets()
	e.mu.Unlock()
	return e.patchOrders(ctx, targets)
}
