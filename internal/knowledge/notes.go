package knowledge

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// noteTransitions is the rigid state machine of spec.md §3: "State
// transitions are the only valid way to mutate status; once approved,
// content is immutable — a new version must be forked." Archived is
// terminal forward (DESIGN.md Open Question 3: archived notes stay
// queryable via Get/List, just immutable and un-transitionable further).
var noteTransitions = map[valueobjects.NoteStatus]map[valueobjects.NoteStatus]bool{
	valueobjects.NoteDraft:    {valueobjects.NotePending: true},
	valueobjects.NotePending:  {valueobjects.NoteApproved: true, valueobjects.NoteDraft: true},
	valueobjects.NoteApproved: {valueobjects.NoteArchived: true},
}

// NoteStore manages the note lifecycle with its own independent audit log
// (spec.md §4.8 "the note lifecycle manager provides approve/reject/
// archive with a rigid state machine and independent audit log").
type NoteStore struct {
	mu    sync.Mutex
	notes map[string]Note
	audit []NoteAuditEntry
}

// NoteAuditEntry records one transition for the note lifecycle's own log,
// independent of the tool-call Store above.
type NoteAuditEntry struct {
	NoteID    string
	From      valueobjects.NoteStatus
	To        valueobjects.NoteStatus
	Actor     string
	Timestamp time.Time
}

func NewNoteStore() *NoteStore {
	return &NoteStore{notes: make(map[string]Note)}
}

// Create starts a note in draft status.
func (s *NoteStore) Create(kind valueobjects.NoteKind, owner, content string, tags []string) Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := Note{
		ID: uuid.NewString(), Kind: kind, Status: valueobjects.NoteDraft,
		Owner: owner, Content: content, Tags: tags, Version: 1,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.notes[n.ID] = n
	return n
}

// Get returns a note regardless of status — archived notes remain
// queryable (DESIGN.md Open Question 3).
func (s *NoteStore) Get(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	return n, ok
}

// List returns every note, including archived ones.
func (s *NoteStore) List() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	return out
}

// Transition applies one state-machine edge, recording it in the
// independent audit log. Content mutation is rejected once approved —
// callers must Fork instead.
func (s *NoteStore) Transition(id string, to valueobjects.NoteStatus, actor string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return Note{}, valueobjects.Newf(valueobjects.ErrInvalidRequest, "note %q not found", id)
	}
	allowed := noteTransitions[n.Status]
	if !allowed[to] {
		return Note{}, valueobjects.Newf(valueobjects.ErrInvalidTransition, "note %q cannot go from %q to %q", id, n.Status, to)
	}
	from := n.Status
	n.Status = to
	n.UpdatedAt = time.Now()
	if to == valueobjects.NoteApproved {
		n.ApprovalActor = actor
		n.ApprovedAt = time.Now()
	}
	s.notes[id] = n
	s.audit = append(s.audit, NoteAuditEntry{NoteID: id, From: from, To: to, Actor: actor, Timestamp: time.Now()})
	return n, nil
}

// Fork creates a new draft version from an approved note's content, the
// only way to mutate content after approval (spec.md §3).
func (s *NoteStore) Fork(id, actor, newContent string) (Note, error) {
	s.mu.Lock()
	orig, ok := s.notes[id]
	s.mu.Unlock()
	if !ok {
		return Note{}, valueobjects.Newf(valueobjects.ErrInvalidRequest, "note %q not found", id)
	}
	forked := s.Create(orig.Kind, orig.Owner, newContent, orig.Tags)
	s.mu.Lock()
	forked.Version = orig.Version + 1
	s.notes[forked.ID] = forked
	s.mu.Unlock()
	return forked, nil
}

// Submit moves a draft note to pending review.
func (s *NoteStore) Submit(id, actor string) (Note, error) {
	return s.Transition(id, valueobjects.NotePending, actor)
}

// Approve moves a pending note to approved, fixing its content immutably.
func (s *NoteStore) Approve(id, actor string) (Note, error) {
	return s.Transition(id, valueobjects.NoteApproved, actor)
}

// Reject sends a pending note back to draft for revision.
func (s *NoteStore) Reject(id, actor string) (Note, error) {
	return s.Transition(id, valueobjects.NoteDraft, actor)
}

// Archive moves an approved note to archived, its terminal state.
func (s *NoteStore) Archive(id, actor string) (Note, error) {
	return s.Transition(id, valueobjects.NoteArchived, actor)
}

// AuditLog returns the note lifecycle's own independent audit trail.
func (s *NoteStore) AuditLog() []NoteAuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NoteAuditEntry(nil), s.audit...)
}
