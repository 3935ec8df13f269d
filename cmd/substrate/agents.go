package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcflow/substrate/internal/lifecycle"
)

// mountAgents wires C8's admit/terminate/restart/inspect surface, the
// lifecycle-manager counterpart to the workflow-run endpoints in server.go.
func (rt *runtime) mountAgents(r chi.Router) {
	r.Post("/agents", rt.handleSpawn)
	r.Post("/agents/{agent_id}/terminate", rt.handleTerminate)
	r.Post("/agents/{agent_id}/restart", rt.handleRestart)
	r.Get("/agents/{agent_id}", rt.handleGetAgent)
}

func (rt *runtime) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID        string                  `json:"id"`
		Type      string                  `json:"type"`
		Config    map[string]any          `json:"config"`
		Resources lifecycle.Resources     `json:"resources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	inst, err := rt.lifecycle.Spawn(body.ID, body.Type, body.Config, body.Resources)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(inst)
}

func (rt *runtime) handleTerminate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agent_id")
	if err := rt.lifecycle.Terminate(id, "requested via API"); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *runtime) handleRestart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agent_id")
	if err := rt.lifecycle.Restart(id, "requested via API"); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *runtime) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agent_id")
	inst, ok := rt.lifecycle.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	_ = json.NewEncoder(w).Encode(inst)
}
