package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/kazz187/crewdesk/internal/config"
	"github.com/kazz187/crewdesk/internal/grid"
)

type newTask struct {
	Name           string
	Instructions   string
	ExpectedOutput string
	HumanInput     bool
	AsyncExecution bool
	AgentID        int
}

func runTasks(command string, env *config.Env) error {
	ctx := context.Background()
	c, err := newClient(&env.ClientEnv)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, c, env.CrewID, sessionConfig{
		out:    os.Stdout,
		errOut: os.Stderr,
		diff:   *showDiff,
		color:  !color.NoColor,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	switch command {
	case tasksAddCmd.FullCommand():
		return s.apply(func(e *grid.Engine) error {
			return addTask(ctx, e, newTask{
				Name:           *tasksAddName,
				Instructions:   *tasksAddInstructions,
				ExpectedOutput: *tasksAddExpectedOutput,
				HumanInput:     *tasksAddHumanInput,
				AsyncExecution: *tasksAddAsync,
				AgentID:        *tasksAddAgent,
			})
		})
	case tasksEditCmd.FullCommand():
		return s.apply(func(e *grid.Engine) error {
			return editTask(ctx, e, *tasksEditID, grid.Field(*tasksEditField), *tasksEditValue)
		})
	case tasksToggleCmd.FullCommand():
		return s.apply(func(e *grid.Engine) error {
			return toggleTask(ctx, e, *tasksToggleID, grid.Field(*tasksToggleField))
		})
	case tasksMoveCmd.FullCommand():
		return s.apply(func(e *grid.Engine) error {
			return e.Move(ctx, *tasksMoveFrom-1, *tasksMoveTo-1)
		})
	case tasksCopyCmd.FullCommand():
		return s.apply(func(e *grid.Engine) error {
			return copyTask(ctx, e, *tasksCopyID, *tasksCopyTarget, *tasksCopyAbove)
		})
	case tasksDeleteCmd.FullCommand():
		return s.apply(func(e *grid.Engine) error {
			return deleteTask(ctx, e, *tasksDeleteID)
		})
	case tasksAssignCmd.FullCommand():
		return s.apply(func(e *grid.Engine) error {
			return assignTask(ctx, e, *tasksAssignID, *tasksAssignAgent)
		})
	default:
		return s.show()
	}
}

// addTask types the values into the trailing row, one cell at a time, the
// way a user fills it in. The row is created once the last required cell is
// filled.
func addTask(ctx context.Context, e *grid.Engine, t newTask) error {
	idx := e.Len() - 1
	row, ok := e.RowAt(idx)
	if !ok || !row.ID.IsTemporary() {
		return errors.New("grid has no trailing row")
	}
	cells := []struct {
		field grid.Field
		value string
	}{
		{grid.FieldName, t.Name},
		{grid.FieldInstructions, t.Instructions},
		{grid.FieldExpectedOutput, t.ExpectedOutput},
	}
	var pending error
	for _, cell := range cells {
		row, _ = e.RowAt(idx)
		err := e.CommitEdit(ctx, grid.CellEdit{
			RowID: row.ID,
			Field: cell.field,
			Old:   row.Value(cell.field),
			New:   cell.value,
		})
		var verr *grid.ValidationError
		switch {
		case errors.As(err, &verr):
			pending = err
		case err != nil:
			return err
		}
	}

	// an unchanged empty cell commits nothing, so the row is still a draft
	row, _ = e.RowAt(idx)
	if row.ID.IsTemporary() {
		return pending
	}
	if t.HumanInput {
		if err := e.Toggle(ctx, row.ID, grid.FieldHumanInput); err != nil {
			return err
		}
	}
	if t.AsyncExecution {
		if err := e.Toggle(ctx, row.ID, grid.FieldAsyncExecution); err != nil {
			return err
		}
	}
	if t.AgentID > 0 {
		return selectAgent(ctx, e, row.ID, t.AgentID)
	}
	return nil
}

func lookupRow(e *grid.Engine, s string) (grid.Row, error) {
	id, err := grid.ParseRowID(s)
	if err != nil {
		return grid.Row{}, err
	}
	row, ok := e.Row(id)
	if !ok {
		return grid.Row{}, fmt.Errorf("%w: %s", grid.ErrRowNotFound, id)
	}
	return row, nil
}

func editTask(ctx context.Context, e *grid.Engine, id string, f grid.Field, value string) error {
	row, err := lookupRow(e, id)
	if err != nil {
		return err
	}
	return e.CommitEdit(ctx, grid.CellEdit{RowID: row.ID, Field: f, Old: row.Value(f), New: value})
}

func toggleTask(ctx context.Context, e *grid.Engine, id string, f grid.Field) error {
	row, err := lookupRow(e, id)
	if err != nil {
		return err
	}
	return e.Toggle(ctx, row.ID, f)
}

// copyTask copies a row through the context menu and pastes it next to
// target, or next to itself when target is empty.
func copyTask(ctx context.Context, e *grid.Engine, id, target string, above bool) error {
	src, err := lookupRow(e, id)
	if err != nil {
		return err
	}
	dst := src
	if target != "" {
		if dst, err = lookupRow(e, target); err != nil {
			return err
		}
	}
	if err := e.OpenContextMenu(src.ID); err != nil {
		return err
	}
	if err := e.Copy(); err != nil {
		return err
	}
	if err := e.OpenContextMenu(dst.ID); err != nil {
		return err
	}
	if above {
		_, err = e.PasteAbove(ctx)
	} else {
		_, err = e.PasteBelow(ctx)
	}
	return err
}

func deleteTask(ctx context.Context, e *grid.Engine, id string) error {
	row, err := lookupRow(e, id)
	if err != nil {
		return err
	}
	if err := e.OpenContextMenu(row.ID); err != nil {
		return err
	}
	return e.DeleteSelected(ctx)
}

func assignTask(ctx context.Context, e *grid.Engine, id string, agentID int) error {
	row, err := lookupRow(e, id)
	if err != nil {
		return err
	}
	return selectAgent(ctx, e, row.ID, agentID)
}

// selectAgent picks agentID in the relation popup of the row. Picking the
// agent the row already has clears it.
func selectAgent(ctx context.Context, e *grid.Engine, id grid.RowID, agentID int) error {
	if err := e.Activate(ctx, id, grid.FieldAgent); err != nil {
		return err
	}
	return e.SelectRelation(ctx, agentID)
}
