package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arcflow/substrate/internal/knowledge"
	"github.com/arcflow/substrate/internal/valueobjects"
)

// mountNotes exposes C2's knowledge-note lifecycle (create/list/get/submit/
// approve/reject/archive), independent of the tool-call audit log. Fork has
// no route here.
func (rt *runtime) mountNotes(r chi.Router) {
	r.Post("/notes", rt.handleCreateNote)
	r.Get("/notes", rt.handleListNotes)
	r.Get("/notes/{note_id}", rt.handleGetNote)
	r.Post("/notes/{note_id}/submit", rt.handleNoteTransition(rt.notes.Submit))
	r.Post("/notes/{note_id}/approve", rt.handleNoteTransition(rt.notes.Approve))
	r.Post("/notes/{note_id}/reject", rt.handleNoteTransition(rt.notes.Reject))
	r.Post("/notes/{note_id}/archive", rt.handleNoteTransition(rt.notes.Archive))
}

func (rt *runtime) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Kind    valueobjects.NoteKind `json:"kind"`
		Owner   string                `json:"owner"`
		Content string                `json:"content"`
		Tags    []string              `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	note := rt.notes.Create(body.Kind, body.Owner, body.Content, body.Tags)
	_ = json.NewEncoder(w).Encode(note)
}

func (rt *runtime) handleListNotes(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(rt.notes.List())
}

func (rt *runtime) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := rt.notes.Get(chi.URLParam(r, "note_id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	_ = json.NewEncoder(w).Encode(note)
}

// handleNoteTransition adapts one of NoteStore's (id, actor) lifecycle
// transitions into an HTTP handler.
func (rt *runtime) handleNoteTransition(transition func(id, actor string) (knowledge.Note, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Actor string `json:"actor"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		note, err := transition(chi.URLParam(r, "note_id"), body.Actor)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(note)
	}
}
