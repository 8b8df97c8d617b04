package grid

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	rows := []Row{
		{
			ID:             ServerID(1),
			Name:           "Research",
			Instructions:   "Find\nsources",
			ExpectedOutput: "A list of links that is much longer than the cell width",
			Order:          intPtr(1),
			HumanInput:     true,
			AgentID:        intPtr(7),
			Agent:          &AgentSnapshot{ID: 7, Role: "Researcher"},
			State:          StatePersisted,
		},
		{
			ID:       NewTemporaryID(),
			Name:     "",
			Order:    intPtr(2),
			Warnings: []Field{FieldName},
			State:    StateDraft,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rows, WithCellWidth(20), WithRenderColor(false)))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[0], "Expected output")
	assert.True(t, strings.HasPrefix(lines[1], "1 "))
	assert.Contains(t, lines[1], "Find sources")
	assert.Contains(t, lines[1], "A list of links t...")
	assert.Contains(t, lines[1], "Researcher")
	assert.Contains(t, lines[1], "yes")
	assert.True(t, strings.HasPrefix(lines[2], "tmp-"))
	assert.Contains(t, lines[2], "!")
	assert.NotContains(t, buf.String(), "\x1b[")
}
