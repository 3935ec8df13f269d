package canvas

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arcflow/substrate/internal/valueobjects"
	"github.com/arcflow/substrate/internal/workflow"
)

// wsSender adapts a gorilla/websocket connection to the Sender contract,
// serializing concurrent writes (spec.md §4.10's "send(msg) that returns a
// completion or error").
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *wsSender) Close() error {
	return s.conn.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WorkflowLookup resolves a workflow id to its current graph for the
// initial_state snapshot on subscribe.
type WorkflowLookup func(workflowID string) (*workflow.Workflow, bool)

// GraphMutator applies one client-to-server action (create/update/delete/
// move node or edge, or start_execution) and reports only whether it
// failed; it does not return the mutated workflow.
type GraphMutator interface {
	Apply(workflowID string, msg ClientMessage) error
}

// Handler wires the Fabric to a chi route via gorilla/websocket — the
// concrete transport named in spec.md §6 ("JSON messages over a
// full-duplex, text-framing transport").
type Handler struct {
	Fabric   *Fabric
	Lookup   WorkflowLookup
	Mutator  GraphMutator
}

// Mount registers the canvas subscription route on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/canvas/{workflow_id}", h.serveWS)
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflow_id")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sender := &wsSender{conn: conn}
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	c := &Connection{ClientID: clientID, WorkflowID: workflowID, sender: sender}

	w2, ok := h.Lookup(workflowID)
	if !ok {
		_ = sender.Close()
		return
	}
	sendInitial := r.URL.Query().Get("send_initial_state") == "true"
	if err := h.Fabric.Subscribe(c, w2, sendInitial); err != nil {
		_ = sender.Close()
		return
	}
	defer h.Fabric.Unsubscribe(workflowID, clientID)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.handleClientMessage(workflowID, msg)
	}
}

func (h *Handler) handleClientMessage(workflowID string, msg ClientMessage) {
	if msg.Type == TypeAck {
		h.Fabric.Ack(msg.MessageID)
		return
	}
	if h.Fabric.HandleInbound(msg.MessageID) {
		return
	}
	if h.Mutator != nil && msg.Action != "" {
		_ = h.Mutator.Apply(workflowID, msg)
	}
}

// decodeClientMessage decodes a raw client message for in-package callers
// (e.g. tests) that already have raw bytes; it is not exported.
func decodeClientMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, valueobjects.Wrap(valueobjects.ErrParse, err)
	}
	return msg, nil
}
