// Package color assigns stable terminal colors to agents.
package color

import (
	"hash/fnv"
	"strconv"

	fcolor "github.com/fatih/color"
)

// Palette for agents. Bright variants first so small crews get the most
// distinct colors.
var agentColors = []fcolor.Attribute{
	fcolor.FgHiRed,
	fcolor.FgHiGreen,
	fcolor.FgHiYellow,
	fcolor.FgHiBlue,
	fcolor.FgHiMagenta,
	fcolor.FgHiCyan,
	fcolor.FgRed,
	fcolor.FgGreen,
	fcolor.FgYellow,
	fcolor.FgBlue,
	fcolor.FgMagenta,
	fcolor.FgCyan,
}

func agentIndex(agentID int) int {
	h := fnv.New32a()
	h.Write([]byte(strconv.Itoa(agentID)))
	return int(h.Sum32() % uint32(len(agentColors)))
}

// ForAgent returns the color of an agent. The same ID always gets the same
// color.
func ForAgent(agentID int) *fcolor.Color {
	return fcolor.New(agentColors[agentIndex(agentID)])
}

// AgentLabel paints label in the agent's color when enabled.
func AgentLabel(agentID int, label string, enabled bool) string {
	if !enabled {
		return label
	}
	c := ForAgent(agentID)
	c.EnableColor()
	return c.Sprint(label)
}
