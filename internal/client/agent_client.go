package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kazz187/crewdesk/internal/agent"
)

// AgentClient maps the /agents/ endpoints.
type AgentClient struct {
	c *Client
}

func NewAgentClient(c *Client) *AgentClient {
	return &AgentClient{c: c}
}

func (ac *AgentClient) ListAgents(ctx context.Context, crewID int) ([]*agent.Agent, error) {
	var agents []*agent.Agent
	q := url.Values{"crew": {strconv.Itoa(crewID)}}
	if err := ac.c.do(ctx, http.MethodGet, "/agents/", q, nil, &agents); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

func (ac *AgentClient) CreateAgent(ctx context.Context, p *agent.Payload) (*agent.Agent, error) {
	var a agent.Agent
	if err := ac.c.do(ctx, http.MethodPost, "/agents/", nil, p, &a); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return &a, nil
}
