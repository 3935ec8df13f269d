package knowledge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/knowledge"
	"github.com/arcflow/substrate/internal/valueobjects"
)

func TestNoteStore_LifecycleHappyPath(t *testing.T) {
	s := knowledge.NewNoteStore()
	n := s.Create(valueobjects.NoteProgress, "alice", "draft content", nil)
	assert.Equal(t, valueobjects.NoteDraft, n.Status)

	n, err := s.Submit(n.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NotePending, n.Status)

	n, err = s.Approve(n.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NoteApproved, n.Status)
	assert.Equal(t, "bob", n.ApprovalActor)

	n, err = s.Archive(n.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NoteArchived, n.Status)

	// Archived notes remain queryable (DESIGN.md Open Question 3).
	got, ok := s.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, valueobjects.NoteArchived, got.Status)
}

func TestNoteStore_InvalidTransitionRejected(t *testing.T) {
	s := knowledge.NewNoteStore()
	n := s.Create(valueobjects.NoteBlocker, "alice", "x", nil)
	_, err := s.Approve(n.ID, "bob")
	require.Error(t, err)
	kind, ok := valueobjects.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, valueobjects.ErrInvalidTransition, kind)
}

func TestNoteStore_ApprovedCannotTransitionBackToDraft(t *testing.T) {
	s := knowledge.NewNoteStore()
	n := s.Create(valueobjects.NoteBlocker, "alice", "x", nil)
	n, _ = s.Submit(n.ID, "alice")
	n, _ = s.Approve(n.ID, "bob")
	_, err := s.Transition(n.ID, valueobjects.NoteDraft, "bob")
	assert.Error(t, err)
}

func TestNoteStore_ForkCreatesNewVersion(t *testing.T) {
	s := knowledge.NewNoteStore()
	n := s.Create(valueobjects.NoteBlocker, "alice", "x", nil)
	n, _ = s.Submit(n.ID, "alice")
	n, _ = s.Approve(n.ID, "bob")

	forked, err := s.Fork(n.ID, "alice", "y")
	require.NoError(t, err)
	assert.Equal(t, 2, forked.Version)
	assert.Equal(t, valueobjects.NoteDraft, forked.Status)
}
