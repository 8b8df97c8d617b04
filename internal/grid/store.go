package grid

import "slices"

// store is the single owned row array. The engine's mutex guards it; every
// mutation site goes through these accessors.
type store struct {
	rows []*Row
}

func (s *store) len() int {
	return len(s.rows)
}

func (s *store) at(i int) *Row {
	if i < 0 || i >= len(s.rows) {
		return nil
	}
	return s.rows[i]
}

func (s *store) indexOf(id RowID) int {
	return slices.IndexFunc(s.rows, func(r *Row) bool { return r.ID == id })
}

func (s *store) find(id RowID) (*Row, int) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, -1
	}
	return s.rows[i], i
}

// trailingIndex is the index of the trailing empty row, -1 when the store is
// empty.
func (s *store) trailingIndex() int {
	return len(s.rows) - 1
}

func (s *store) insert(i int, r *Row) {
	s.rows = slices.Insert(s.rows, i, r)
}

func (s *store) remove(i int) *Row {
	r := s.rows[i]
	s.rows = slices.Delete(s.rows, i, i+1)
	return r
}

func (s *store) move(from, to int) {
	r := s.remove(from)
	s.insert(to, r)
}

// renumber sets every order to index+1.
func (s *store) renumber() {
	for i, r := range s.rows {
		r.Order = intPtr(i + 1)
	}
}

// orders records the current order of every row, for rollback.
func (s *store) orders() map[RowID]*int {
	m := make(map[RowID]*int, len(s.rows))
	for _, r := range s.rows {
		m[r.ID] = cloneInt(r.Order)
	}
	return m
}

// restoreOrders puts back recorded orders. Rows missing from prev get their
// positional order.
func (s *store) restoreOrders(prev map[RowID]*int) {
	for i, r := range s.rows {
		if o, ok := prev[r.ID]; ok {
			r.Order = cloneInt(o)
			continue
		}
		r.Order = intPtr(i + 1)
	}
}

// ensureTrailing appends a fresh draft row unless the last row is already
// temporary. It returns the appended row, if any.
func (s *store) ensureTrailing() *Row {
	if last := s.at(s.trailingIndex()); last != nil && last.ID.IsTemporary() {
		return nil
	}
	r := newDraftRow()
	r.Order = intPtr(len(s.rows) + 1)
	s.rows = append(s.rows, r)
	return r
}

func (s *store) ids() []RowID {
	ids := make([]RowID, len(s.rows))
	for i, r := range s.rows {
		ids[i] = r.ID
	}
	return ids
}

func (s *store) snapshot() []Row {
	out := make([]Row, len(s.rows))
	for i, r := range s.rows {
		out[i] = *r.clone()
	}
	return out
}

// orderTargets lists the persisted rows with their current order.
// changedOrderTargets lists persisted rows whose order differs from prev.
func (s *store) changedOrderTargets(prev map[RowID]*int) []orderTarget {
	var targets []orderTarget
	for _, tg := range s.orderTargets() {
		if o := prev[tg.rowID]; o != nil && *o == tg.order {
			continue
		}
		targets = append(targets, tg)
	}
	return targets
}

func (s *store) orderTargets() []orderTarget {
	var targets []orderTarget
	for _, r := range s.rows {
		id, ok := r.ID.Server()
		if !ok || r.Order == nil {
			continue
		}
		targets = append(targets, orderTarget{rowID: r.ID, serverID: id, order: *r.Order})
	}
	return targets
}
