package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/kazz187/crewdesk/internal/config"
	"github.com/kazz187/crewdesk/pkg/clog"
)

var (
	app = kingpin.New("crewdesk", "Editable task grid for crews of AI agents")

	apiURL   = app.Flag("api-url", "Backend URL (overrides CREWDESK_API_URL)").String()
	apiKey   = app.Flag("api-key", "Backend API key (overrides CREWDESK_API_KEY)").String()
	crewID   = app.Flag("crew", "Crew ID (overrides CREWDESK_CREW_ID)").Short('c').Int()
	timeout  = app.Flag("timeout", "Request timeout (overrides CREWDESK_API_TIMEOUT)").Duration()
	logLevel = app.Flag("log-level", "Log level (overrides CREWDESK_LOG_LEVEL)").String()
	noColor  = app.Flag("no-color", "Disable colored output").Bool()
	showDiff = app.Flag("diff", "Print a diff of the grid instead of the full table").Bool()

	// Server
	serveCmd     = app.Command("serve", "Run the reference backend")
	serveHost    = serveCmd.Flag("host", "Host to bind to").String()
	servePort    = serveCmd.Flag("port", "Port to bind to").String()
	serveStorage = serveCmd.Flag("storage", "Storage type").Enum("local", "s3", "memory")

	// Task grid
	tasksCmd = app.Command("tasks", "Task grid commands")

	tasksListCmd = tasksCmd.Command("list", "Show the task grid").Default()

	tasksAddCmd            = tasksCmd.Command("add", "Fill the trailing row to create a task")
	tasksAddName           = tasksAddCmd.Flag("name", "Task name").Required().String()
	tasksAddInstructions   = tasksAddCmd.Flag("instructions", "Instructions").Required().String()
	tasksAddExpectedOutput = tasksAddCmd.Flag("expected-output", "Expected output").Required().String()
	tasksAddHumanInput     = tasksAddCmd.Flag("human-input", "Require human input").Bool()
	tasksAddAsync          = tasksAddCmd.Flag("async", "Run asynchronously").Bool()
	tasksAddAgent          = tasksAddCmd.Flag("agent", "Assigned agent ID").Int()

	tasksEditCmd   = tasksCmd.Command("edit", "Edit a text cell")
	tasksEditID    = tasksEditCmd.Arg("id", "Task ID").Required().String()
	tasksEditField = tasksEditCmd.Arg("field", "Column").Required().Enum("name", "instructions", "expected_output")
	tasksEditValue = tasksEditCmd.Arg("value", "New value").Required().String()

	tasksToggleCmd   = tasksCmd.Command("toggle", "Flip a toggle cell")
	tasksToggleID    = tasksToggleCmd.Arg("id", "Task ID").Required().String()
	tasksToggleField = tasksToggleCmd.Arg("field", "Column").Required().Enum("human_input", "async_execution")

	tasksMoveCmd  = tasksCmd.Command("move", "Drag a row to another position")
	tasksMoveFrom = tasksMoveCmd.Arg("from", "Current position (1-based)").Required().Int()
	tasksMoveTo   = tasksMoveCmd.Arg("to", "Target position (1-based)").Required().Int()

	tasksCopyCmd    = tasksCmd.Command("copy", "Copy a row and paste it next to another")
	tasksCopyID     = tasksCopyCmd.Arg("id", "Task ID to copy").Required().String()
	tasksCopyTarget = tasksCopyCmd.Flag("to", "Row to paste next to (defaults to the copied row)").String()
	tasksCopyAbove  = tasksCopyCmd.Flag("above", "Paste above the target instead of below").Bool()

	tasksDeleteCmd = tasksCmd.Command("delete", "Delete a row")
	tasksDeleteID  = tasksDeleteCmd.Arg("id", "Task ID").Required().String()

	tasksAssignCmd   = tasksCmd.Command("assign", "Pick an agent in the relation popup")
	tasksAssignID    = tasksAssignCmd.Arg("id", "Task ID").Required().String()
	tasksAssignAgent = tasksAssignCmd.Arg("agent", "Agent ID").Required().Int()

	// Agents
	agentsCmd = app.Command("agents", "Agent commands")

	agentsListCmd    = agentsCmd.Command("list", "List agents offered by the relation popup").Default()
	agentsListFilter = agentsListCmd.Flag("filter", "Filter by role, goal or backstory").String()

	agentsAddCmd       = agentsCmd.Command("add", "Create an agent")
	agentsAddRole      = agentsAddCmd.Flag("role", "Role").Required().String()
	agentsAddGoal      = agentsAddCmd.Flag("goal", "Goal").Required().String()
	agentsAddBackstory = agentsAddCmd.Flag("backstory", "Backstory").String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}
	applyFlags(env)
	if *noColor {
		color.NoColor = true
	}
	setupLogger(&env.BaseEnv)

	switch command {
	case serveCmd.FullCommand():
		err = runServe(env)
	case agentsListCmd.FullCommand(), agentsAddCmd.FullCommand():
		err = runAgents(command, env)
	default:
		err = runTasks(command, env)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "crewdesk: %v\n", err)
		os.Exit(1)
	}
}

func applyFlags(env *config.Env) {
	if *apiURL != "" {
		env.APIURL = *apiURL
	}
	if *apiKey != "" {
		env.ClientEnv.APIKey = *apiKey
	}
	if *crewID > 0 {
		env.CrewID = *crewID
	}
	if *timeout > 0 {
		env.Timeout = *timeout
	}
	if *logLevel != "" {
		env.LogLevel = *logLevel
	}
	if *serveHost != "" {
		env.HTTPHost = *serveHost
	}
	if *servePort != "" {
		env.HTTPPort = *servePort
	}
	if *serveStorage != "" {
		env.StorageEnv.Type = *serveStorage
	}
}

func setupLogger(env *config.BaseEnv) {
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level), clog.WithColor(!color.NoColor))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}
