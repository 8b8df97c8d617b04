package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/kazz187/crewdesk/internal/agent"
	"github.com/kazz187/crewdesk/internal/client"
	"github.com/kazz187/crewdesk/internal/config"
	"github.com/kazz187/crewdesk/internal/grid"
	agentcolor "github.com/kazz187/crewdesk/pkg/color"
)

func runAgents(command string, env *config.Env) error {
	ctx := context.Background()
	c, err := newClient(&env.ClientEnv)
	if err != nil {
		return err
	}

	switch command {
	case agentsAddCmd.FullCommand():
		a, err := client.NewAgentClient(c).CreateAgent(ctx, &agent.Payload{
			Role:      *agentsAddRole,
			Goal:      *agentsAddGoal,
			Backstory: *agentsAddBackstory,
			CrewID:    env.CrewID,
		})
		if err != nil {
			return err
		}
		return writeAgents(os.Stdout, []grid.AgentSnapshot{{ID: a.ID, Role: a.Role, Goal: a.Goal, Backstory: a.Backstory}}, !color.NoColor)
	default:
		s, err := openSession(ctx, c, env.CrewID, sessionConfig{out: os.Stdout, errOut: os.Stderr})
		if err != nil {
			return err
		}
		defer s.Close()
		agents, err := filterAgents(s.engine, *agentsListFilter)
		if err != nil {
			return err
		}
		return writeAgents(os.Stdout, agents, !color.NoColor)
	}
}

// filterAgents returns what the relation popup of the trailing row offers for
// query.
func filterAgents(e *grid.Engine, query string) ([]grid.AgentSnapshot, error) {
	row, ok := e.RowAt(e.Len() - 1)
	if !ok {
		return nil, grid.ErrNotLoaded
	}
	if err := e.OpenRelation(row.ID); err != nil {
		return nil, err
	}
	defer e.Escape()
	return e.FilterRelation(query)
}

func writeAgents(w io.Writer, agents []grid.AgentSnapshot, colored bool) error {
	idWidth, roleWidth := len("ID"), len("ROLE")
	for _, a := range agents {
		idWidth = max(idWidth, len(strconv.Itoa(a.ID)))
		roleWidth = max(roleWidth, utf8.RuneCountInString(a.Role))
	}
	header := fmt.Sprintf("%-*s  %-*s  %s", idWidth, "ID", roleWidth, "ROLE", "GOAL")
	if colored {
		header = color.New(color.Bold).Sprint(header)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, a := range agents {
		role := agentcolor.AgentLabel(a.ID, fmt.Sprintf("%-*s", roleWidth, a.Role), colored)
		if _, err := fmt.Fprintf(w, "%-*d  %s  %s\n", idWidth, a.ID, role, a.Goal); err != nil {
			return err
		}
	}
	return nil
}
