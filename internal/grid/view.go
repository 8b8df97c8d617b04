package grid

// IndexedRow is a row added at Index.
type IndexedRow struct {
	Index int
	Row   Row
}

// Rekey tells the view that a temporary row now has its server identity.
type Rekey struct {
	From RowID
	To   RowID
}

// Transaction is a batch of row changes the view applies without a full
// re-render. Rekeys apply first, then removals, updates and additions.
type Transaction struct {
	Rekey  []Rekey
	Remove []RowID
	Update []Row
	Add    []IndexedRow
}

func (t Transaction) empty() bool {
	return len(t.Rekey) == 0 && len(t.Remove) == 0 && len(t.Update) == 0 && len(t.Add) == 0
}

// View is the rendering grid.
type View interface {
	ApplyTransaction(tx Transaction)
	RefreshCells(ids []RowID, fields []Field)
}

type nopView struct{}

func (nopView) ApplyTransaction(Transaction) {}
func (nopView) RefreshCells([]RowID, []Field) {}
