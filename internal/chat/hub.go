package chat

import "sync"

// broadcastRecorder is the slice of metrics the hub reports.
type broadcastRecorder interface {
	RecordBroadcast()
	RecordDroppedSend()
}

type nopRecorder struct{}

func (nopRecorder) RecordBroadcast() {}
func (nopRecorder) RecordDroppedSend() {}

// Hub tracks connected clients and the session rooms they have joined.
// Delivery is best-effort: a client whose send buffer is full has the frame
// dropped rather than stalling the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	metrics broadcastRecorder
}

func NewHub(metrics broadcastRecorder) *Hub {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		metrics: metrics,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister drops the client from the hub and from any room it joined, and
// closes its send channel so the write pump exits.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.leaveLocked(c)
	close(c.send)
}

// JoinRoom moves the client into a session room. A client occupies at most
// one room at a time; joining again leaves the previous room first.
func (h *Hub) JoinRoom(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.leaveLocked(c)
	room := h.rooms[sessionID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[sessionID] = room
	}
	room[c] = struct{}{}
	c.room = sessionID
}

func (h *Hub) leaveLocked(c *Client) {
	if c.room == "" {
		return
	}
	if room, ok := h.rooms[c.room]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

// Broadcast queues a frame to every client in the session room.
func (h *Hub) Broadcast(sessionID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.metrics.RecordBroadcast()
	for c := range h.rooms[sessionID] {
		h.push(c, frame)
	}
}

// BroadcastAll queues a frame to every connected client, joined to a room or
// not. Presence updates go out this way.
func (h *Hub) BroadcastAll(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.metrics.RecordBroadcast()
	for c := range h.clients {
		h.push(c, frame)
	}
}

func (h *Hub) push(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.metrics.RecordDroppedSend()
	}
}

// RoomSize reports how many clients are currently joined to a session room.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}
