package grid

type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnToggle
	ColumnRelation
	ColumnReadOnly
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnText:
		return "text"
	case ColumnToggle:
		return "toggle"
	case ColumnRelation:
		return "relation"
	case ColumnReadOnly:
		return "read_only"
	default:
		return "unknown"
	}
}

type Column struct {
	Field Field
	Title string
	Kind  ColumnKind
}

// Columns is the task grid layout, left to right.
var Columns = []Column{
	{Field: FieldOrder, Title: "#", Kind: ColumnReadOnly},
	{Field: FieldName, Title: "Name", Kind: ColumnText},
	{Field: FieldInstructions, Title: "Instructions", Kind: ColumnText},
	{Field: FieldExpectedOutput, Title: "Expected output", Kind: ColumnText},
	{Field: FieldAgent, Title: "Agent", Kind: ColumnRelation},
	{Field: FieldHumanInput, Title: "Human input", Kind: ColumnToggle},
	{Field: FieldAsyncExecution, Title: "Async", Kind: ColumnToggle},
}

func ColumnFor(f Field) (Column, bool) {
	for _, c := range Columns {
		if c.Field == f {
			return c, true
		}
	}
	return Column{}, false
}
