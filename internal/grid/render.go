package grid

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	agentcolor "github.com/kazz187/crewdesk/pkg/color"
)

const defaultCellWidth = 32

type renderConfig struct {
	cellWidth int
	color     bool
}

type RenderOption func(*renderConfig)

// WithCellWidth truncates text cells to n runes.
func WithCellWidth(n int) RenderOption {
	return func(c *renderConfig) {
		if n > 3 {
			c.cellWidth = n
		}
	}
}

func WithRenderColor(enabled bool) RenderOption {
	return func(c *renderConfig) {
		c.color = enabled
	}
}

var (
	headerColor  = color.New(color.Bold)
	warningColor = color.New(color.FgRed, color.Bold)
	draftColor   = color.New(color.Faint)
	pendingColor = color.New(color.FgYellow)
)

// Render writes rows as a plain text table, one line per row. Cells with a
// validation warning are marked with "!" and drawn in red.
func Render(w io.Writer, rows []Row, opts ...RenderOption) error {
	cfg := renderConfig{cellWidth: defaultCellWidth, color: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	header := []string{"ID"}
	for _, c := range Columns {
		header = append(header, c.Title)
	}
	cells := make([][]string, len(rows))
	for i := range rows {
		cells[i] = renderRow(&rows[i], cfg.cellWidth)
	}
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, line := range cells {
		for i, c := range line {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}

	paint := func(c *color.Color, s string) string {
		if !cfg.color {
			return s
		}
		return c.Sprint(s)
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(paint(headerColor, pad(h, widths[i])))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for r, line := range cells {
		row := &rows[r]
		for i, c := range line {
			cell := pad(c, widths[i])
			switch {
			case i > 0 && row.HasWarning(Columns[i-1].Field):
				cell = paint(warningColor, cell)
			case row.State == StateDraft:
				cell = paint(draftColor, cell)
			case row.State == StatePendingCreate || row.State == StatePendingUpdate || row.State == StateUnsynced:
				cell = paint(pendingColor, cell)
			case i > 0 && Columns[i-1].Kind == ColumnRelation && row.AgentID != nil:
				cell = paint(agentcolor.ForAgent(*row.AgentID), cell)
			}
			b.WriteString(cell)
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderRow(r *Row, width int) []string {
	out := []string{r.ID.String()}
	for _, c := range Columns {
		var s string
		switch c.Kind {
		case ColumnText:
			s = truncate(oneLine(r.Value(c.Field).(string)), width)
		case ColumnToggle:
			if v, _ := r.Value(c.Field).(bool); v {
				s = "yes"
			} else {
				s = "no"
			}
		case ColumnRelation:
			switch {
			case r.Agent != nil:
				s = truncate(r.Agent.Role, width)
			case r.AgentID != nil:
				s = fmt.Sprintf("agent %d", *r.AgentID)
			default:
				s = "-"
			}
		case ColumnReadOnly:
			if v, ok := r.Value(c.Field).(int); ok {
				s = strconv.Itoa(v)
			} else {
				s = "-"
			}
		}
		if r.HasWarning(c.Field) {
			s = "!" + s
		}
		out = append(out, s)
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func pad(s string, n int) string {
	if d := n - utf8.RuneCountInString(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}
