package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/demandos/sourcing-agent/internal/types"
	"github.com/demandos/sourcing-agent/internal/workflow"
)

// handleStart creates a new agent task and returns its initial snapshot.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req types.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status, err := s.engine.Start(r.Context(), &req)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, status)
}

// handleStatus returns the current task snapshot. Polling is side-effect
// free; repeated calls without an intervening event return identical bodies.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Status(r.PathValue("task_id"))
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// handleContinue resumes a task paused on a user-input step.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	var req types.ContinueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := s.engine.Continue(r.Context(), req.TaskID, req.UserInput)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// handleCancel stops a running task. Completed step results stay queryable.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	status, err := s.engine.Cancel(r.PathValue("task_id"))
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// handleListAgents returns the registered agents and their trigger keywords.
func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"agents": s.engine.Agents()})
}

// searchRequest is the body for POST /search.
type searchRequest struct {
	Query string `json:"query"`
}

// handleSearch parses a free-text query and runs a one-shot catalog search,
// escalating to a sourcing request when nothing qualifies.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.errorResponse(w, http.StatusBadRequest, "query is required")
		return
	}

	query := s.parser.Parse(r.Context(), req.Query)
	matches, ticket, err := s.searcher.SearchOrEscalate(r.Context(), query)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}

	response := map[string]any{
		"parsed_query": query,
		"matches":      matches,
		"total":        len(matches),
	}
	if ticket != nil {
		response["sourcing_request"] = ticket
	}
	s.jsonResponse(w, http.StatusOK, response)
}

// handleListSourcingRequests lists persisted sourcing tickets, optionally
// filtered by ?status=.
func (s *Server) handleListSourcingRequests(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "sourcing request store not configured")
		return
	}

	var status *string
	if v := r.URL.Query().Get("status"); v != "" {
		status = &v
	}
	records, err := s.db.ListSourcingRequests(r.Context(), status)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list sourcing requests")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"sourcing_requests": records, "total": len(records)})
}

func (s *Server) handleGetSourcingRequest(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "sourcing request store not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid sourcing request ID")
		return
	}
	record, err := s.db.GetSourcingRequest(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to load sourcing request")
		return
	}
	if record == nil {
		s.errorResponse(w, http.StatusNotFound, "sourcing request not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, record)
}

// updateSourcingRequestBody is the body for PATCH /sourcing-requests/{id}.
type updateSourcingRequestBody struct {
	Status types.SourcingStatus `json:"status"`
}

// handleUpdateSourcingRequest moves a ticket through its lifecycle, for
// example to "quoted" once a buyer has sent terms.
func (s *Server) handleUpdateSourcingRequest(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "sourcing request store not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid sourcing request ID")
		return
	}

	var body updateSourcingRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !body.Status.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "invalid status: "+string(body.Status))
		return
	}

	record, err := s.db.GetSourcingRequest(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to load sourcing request")
		return
	}
	if record == nil {
		s.errorResponse(w, http.StatusNotFound, "sourcing request not found")
		return
	}

	if err := s.db.UpdateSourcingRequestStatus(r.Context(), id, string(body.Status)); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to update sourcing request")
		return
	}

	record.Status = string(body.Status)
	record.UpdatedAt = time.Now()
	s.jsonResponse(w, http.StatusOK, record)
}

// engineError maps workflow state errors onto HTTP status codes: unknown
// tasks are 404, other state conflicts are 409.
func (s *Server) engineError(w http.ResponseWriter, err error) {
	var se *workflow.StateError
	if errors.As(err, &se) {
		if se.NotFound {
			s.errorResponse(w, http.StatusNotFound, se.Error())
			return
		}
		s.errorResponse(w, http.StatusConflict, se.Error())
		return
	}
	s.errorResponse(w, http.StatusInternalServerError, err.Error())
}
