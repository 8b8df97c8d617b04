package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kazz187/crewdesk/internal/client"
	"github.com/kazz187/crewdesk/internal/config"
	"github.com/kazz187/crewdesk/internal/eventbus"
	"github.com/kazz187/crewdesk/internal/grid"
)

// gridSession is one loaded grid. Every CLI command is a gesture applied to
// it, followed by a print of the resulting grid.
type gridSession struct {
	engine *grid.Engine
	agents *client.AgentClient
	bus    *eventbus.Bus
	subID  string
	events <-chan *eventbus.Event

	out   io.Writer
	diff  bool
	color bool
}

type sessionConfig struct {
	out    io.Writer
	errOut io.Writer
	diff   bool
	color  bool
}

func newClient(env *config.ClientEnv) (*client.Client, error) {
	return client.New(env.APIURL, client.WithAPIKey(env.APIKey), client.WithTimeout(env.Timeout))
}

func openSession(ctx context.Context, c *client.Client, crewID int, cfg sessionConfig) (*gridSession, error) {
	bus := eventbus.New()
	subID, events := bus.Subscribe(256)
	agents := client.NewAgentClient(c)
	e := grid.NewEngine(client.NewTaskClient(c),
		grid.WithAgentAPI(agents),
		grid.WithNotifier(&consoleNotifier{w: cfg.errOut, color: cfg.color}),
		grid.WithPublisher(bus),
	)
	if err := e.Load(ctx, crewID); err != nil {
		bus.Unsubscribe(subID)
		return nil, fmt.Errorf("failed to load crew %d: %w", crewID, err)
	}
	return &gridSession{
		engine: e,
		agents: agents,
		bus:    bus,
		subID:  subID,
		events: events,
		out:    cfg.out,
		diff:   cfg.diff,
		color:  cfg.color,
	}, nil
}

func (s *gridSession) Close() {
	s.bus.Unsubscribe(s.subID)
}

// apply runs gesture and prints the grid, or its diff, even when the gesture
// failed: a rolled back grid is part of the answer.
func (s *gridSession) apply(gesture func(e *grid.Engine) error) error {
	before, err := s.render(false)
	if err != nil {
		return err
	}
	gestureErr := gesture(s.engine)
	s.printEvents()
	if s.diff {
		after, err := s.render(false)
		if err != nil {
			return errors.Join(gestureErr, err)
		}
		return errors.Join(gestureErr, writeDiff(s.out, before, after, s.color))
	}
	return errors.Join(gestureErr, s.show())
}

func (s *gridSession) show() error {
	text, err := s.render(s.color)
	if err != nil {
		return err
	}
	_, err = io.WriteString(s.out, text)
	return err
}

func (s *gridSession) render(colored bool) (string, error) {
	var b strings.Builder
	if err := grid.Render(&b, s.engine.Rows(), grid.WithRenderColor(colored)); err != nil {
		return "", fmt.Errorf("failed to render grid: %w", err)
	}
	return b.String(), nil
}

var eventColors = map[eventbus.EventType]*color.Color{
	eventbus.TaskAdded:   color.New(color.FgGreen),
	eventbus.TaskUpdated: color.New(color.FgCyan),
	eventbus.TaskDeleted: color.New(color.FgRed),
}

func (s *gridSession) printEvents() {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return
			}
			line := fmt.Sprintf("%s %d", ev.Type, ev.TaskID)
			if c, found := eventColors[ev.Type]; found && s.color {
				line = c.Sprint(line)
			}
			fmt.Fprintln(s.out, line)
		default:
			return
		}
	}
}

// consoleNotifier prints grid notifications to stderr.
type consoleNotifier struct {
	w     io.Writer
	color bool
}

var notifyErrorColor = color.New(color.FgRed, color.Bold)

func (n *consoleNotifier) Notify(ctx context.Context, msg grid.Notification) {
	if n.w == nil {
		grid.SlogNotifier{}.Notify(ctx, msg)
		return
	}
	line := msg.Message
	if !msg.RowID.IsZero() {
		line = fmt.Sprintf("%s (row %s)", line, msg.RowID)
	}
	if msg.Severity == grid.SeverityError {
		line = "error: " + line
		if n.color {
			line = notifyErrorColor.Sprint(line)
		}
	}
	fmt.Fprintln(n.w, line)
}
