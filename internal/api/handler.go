// Package api exposes the personality engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kindred-ai/kindred/internal/compat"
	"github.com/kindred-ai/kindred/internal/convo"
	"github.com/kindred-ai/kindred/internal/memory"
	"github.com/kindred-ai/kindred/internal/registry"
	"github.com/kindred-ai/kindred/internal/relation"
	"github.com/kindred-ai/kindred/internal/trait"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry     *registry.Registry
	memoryStore  *memory.Store
	orchestrator *convo.Orchestrator
	logger       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(reg *registry.Registry, mem *memory.Store, orch *convo.Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{
		registry:     reg,
		memoryStore:  mem,
		orchestrator: orch,
		logger:       logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Get("/agents", h.listAgents)
		r.Post("/agents", h.createAgent)
		r.Get("/agents/{id}", h.getAgent)
		r.Put("/agents/{id}/profile", h.updateProfile)

		r.Post("/compatibility", h.computeCompatibility)

		r.Post("/agents/{id}/message", h.sendMessage)
		r.Get("/agents/{id}/memories", h.listMemories)
		r.Post("/agents/{id}/memories/search", h.searchMemories)
		r.Post("/agents/{id}/events", h.recordRelationshipEvent)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "kindred"})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List())
}

type createAgentRequest struct {
	ID       string               `json:"id,omitempty"`
	Name     string               `json:"name"`
	Template string               `json:"template,omitempty"`
	Profile  *trait.ProfileUpdate `json:"profile,omitempty"`
}

func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	agent, err := h.registry.Create(r.Context(), req.ID, req.Name, req.Template, req.Profile)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.memoryStore.Register(agent.ID)
	writeJSON(w, http.StatusCreated, agent)
}

func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update trait.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	agent, err := h.registry.UpdateProfile(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

type compatibilityRequest struct {
	FirstAgentID  string         `json:"first_agent_id,omitempty"`
	SecondAgentID string         `json:"second_agent_id,omitempty"`
	FirstProfile  *trait.Profile `json:"first_profile,omitempty"`
	SecondProfile *trait.Profile `json:"second_profile,omitempty"`
}

// computeCompatibility accepts either agent ids or inline profiles per side.
func (h *Handler) computeCompatibility(w http.ResponseWriter, r *http.Request) {
	var req compatibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	first, err := h.resolveProfile(req.FirstAgentID, req.FirstProfile)
	if err != nil {
		h.writeError(w, err)
		return
	}
	second, err := h.resolveProfile(req.SecondAgentID, req.SecondProfile)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := compat.Compute(*first, *second)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) resolveProfile(agentID string, inline *trait.Profile) (*trait.Profile, error) {
	if inline != nil {
		return inline, nil
	}
	if agentID == "" {
		return nil, &trait.ValidationError{Field: "profile", Reason: "agent id or inline profile required"}
	}
	agent, err := h.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	return &agent.Profile, nil
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var msg convo.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	msg.AgentID = chi.URLParam(r, "id")

	resp, err := h.orchestrator.SendMessage(r.Context(), msg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listMemories(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	typ := memory.RecordType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown memory type %q", typ)})
		return
	}
	recs, err := h.memoryStore.List(chi.URLParam(r, "id"), typ, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type searchRequest struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (h *Handler) searchMemories(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	typ := memory.RecordType(req.Type)
	if typ != "" && !typ.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown memory type %q", req.Type)})
		return
	}
	recs, err := h.memoryStore.Search(r.Context(), chi.URLParam(r, "id"), req.Query, typ, req.Limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) recordRelationshipEvent(w http.ResponseWriter, r *http.Request) {
	var ev relation.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ev.AgentID = chi.URLParam(r, "id")

	rec, err := h.orchestrator.RecordRelationshipEvent(r.Context(), ev)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ve *trait.ValidationError
	var ipe *compat.InvalidProfileError
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &ipe):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, convo.ErrEmptyMessage), errors.Is(err, memory.ErrInvalidRecord):
		status = http.StatusBadRequest
	case errors.Is(err, registry.ErrUnknownAgent), errors.Is(err, memory.ErrUnknownAgent):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrAgentExists):
		status = http.StatusConflict
	case errors.Is(err, convo.ErrCompletionUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
