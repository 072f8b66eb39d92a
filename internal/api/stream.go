package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"game-stock-advisor/console/internal/view"
)

// SnapshotEvent is the websocket payload pushed whenever a session's UI
// state changes.
type SnapshotEvent struct {
	Type      string        `json:"type"`
	Snapshot  view.Snapshot `json:"snapshot"`
	Timestamp time.Time     `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn    *websocket.Conn
	session string
	mu      sync.Mutex
}

// SnapshotNotifier tracks websocket clients per session and fans snapshots
// out to them.
type SnapshotNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewSnapshotNotifier constructs a notifier instance.
func NewSnapshotNotifier() *SnapshotNotifier {
	return &SnapshotNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection for session and immediately sends
// it the current snapshot.
func (n *SnapshotNotifier) Register(conn *websocket.Conn, session string, current view.Snapshot) *wsClient {
	client := &wsClient{conn: conn, session: session}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	n.mu.Unlock()

	_ = client.writeJSON(SnapshotEvent{Type: "snapshot", Snapshot: current, Timestamp: time.Now().UTC()})
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *SnapshotNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Publish sends snap to every client of session. It matches view.PublishFunc.
// Writes happen outside the notifier lock so a slow socket only delays its
// own session.
func (n *SnapshotNotifier) Publish(session string, snap view.Snapshot) {
	event := SnapshotEvent{Type: "snapshot", Snapshot: snap, Timestamp: time.Now().UTC()}

	n.mu.Lock()
	targets := make([]*wsClient, 0, 1)
	for client := range n.clients {
		if client.session == session {
			targets = append(targets, client)
		}
	}
	n.mu.Unlock()

	for _, client := range targets {
		if err := client.writeJSON(event); err != nil {
			n.mu.Lock()
			delete(n.clients, client)
			n.mu.Unlock()
			_ = client.conn.Close()
		}
	}
}

// Count reports the number of connected clients.
func (n *SnapshotNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
