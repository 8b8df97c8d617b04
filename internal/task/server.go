package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
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

// Routes mounts the task endpoints. Paths keep their trailing slash.
func (s *Server) Routes(r chi.Router) {
	r.Get("/tasks/", s.ListTasks)
	r.Post("/tasks/", s.CreateTask)
	r.Put("/tasks/{id}/", s.UpdateTask)
	r.Patch("/tasks/{id}/", s.PatchTaskOrder)
	r.Delete("/tasks/{id}/", s.DeleteTask)
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
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
	tasks, err := s.repo.List(ctx, crewID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	SortByOrder(tasks)
	cerr.SetJSONResponse(ctx, tasks)
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := decodePayload(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if p.Order == nil {
		siblings, err := s.repo.List(ctx, p.CrewID)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		next := len(siblings) + 1
		p.Order = &next
	}

	now := time.Now()
	t := &Task{CreatedAt: now, UpdatedAt: now}
	p.apply(t)
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.lookup(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	p, err := decodePayload(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	// A full update without an order keeps the current placement.
	if p.Order == nil {
		p.Order = t.Order
	}
	p.apply(t)
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) PatchTaskOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.lookup(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var patch OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if patch.Order < 1 {
		cerr.SetNewJSONError(ctx, cerr.OutOfRange, "order must be positive", nil)
		return
	}
	order := patch.Order
	t.Order = &order
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := idParam(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, nil)
}

func (s *Server) lookup(r *http.Request) (*Task, error) {
	id, err := idParam(r)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(r.Context(), id)
}

func idParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid task id %q", raw), err)
	}
	return id, nil
}

func decodePayload(r *http.Request) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	if missing := p.MissingFields(); len(missing) > 0 {
		verr := cerr.NewError(cerr.InvalidArgument, "required fields are empty", nil)
		for _, field := range missing {
			_ = verr.AddDetailMessageWithCode(field+" is required", field)
		}
		return nil, verr
	}
	return &p, nil
}
