package agent

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kazz187/crewdesk/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/agents/", s.ListAgents)
	r.Post("/agents/", s.CreateAgent)
}

func (s *Server) ListAgents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var crewID int
	if v := r.URL.Query().Get("crew"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid crew %q", v), err)
			return
		}
		crewID = id
	}
	agents, err := s.repo.List(ctx, crewID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, agents)
}

func (s *Server) CreateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if strings.TrimSpace(p.Role) == "" {
		verr := cerr.NewError(cerr.InvalidArgument, "required fields are empty", nil)
		cerr.SetJSONError(ctx, verr.AddDetailMessageWithCode("role is required", "role"))
		return
	}
	a := &Agent{
		Role:      p.Role,
		Goal:      p.Goal,
		Backstory: p.Backstory,
		CrewID:    p.CrewID,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, a)
}
