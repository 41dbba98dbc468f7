package relay

import (
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// peer is one websocket client joined to a room.
type peer struct {
	id   string
	room string
	send chan []byte
	conn *websocket.Conn
}

// RoomStats describes one room for the /api/rooms endpoint.
type RoomStats struct {
	Room    string   `json:"room"`
	Clients []string `json:"clients"`
}

// Hub tracks room membership and fans messages out to room members.
// It is safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*peer]struct{}
	logger *logrus.Entry
}

// NewHub creates an empty hub.
func NewHub(logger *logrus.Entry) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*peer]struct{}),
		logger: logger,
	}
}

func (h *Hub) join(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[p.room]
	if !ok {
		members = make(map[*peer]struct{})
		h.rooms[p.room] = members
	}
	members[p] = struct{}{}
}

// leave removes p and closes its send queue. Calling it twice is safe.
func (h *Hub) leave(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[p.room]
	if !ok {
		return
	}
	if _, ok := members[p]; !ok {
		return
	}
	delete(members, p)
	close(p.send)
	if len(members) == 0 {
		delete(h.rooms, p.room)
	}
}

// broadcast queues msg for every member of from's room except from.
func (h *Hub) broadcast(from *peer, msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for p := range h.rooms[from.room] {
		if p == from {
			continue
		}
		select {
		case p.send <- msg:
			delivered++
		default:
			// Slow clients lose the message rather than stall the room.
			h.logger.WithFields(logrus.Fields{"room": p.room, "client_id": p.id}).Warn("send queue full, dropping event")
		}
	}
	return delivered
}

// Rooms returns the current membership sorted by room.
func (h *Hub) Rooms() []RoomStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]RoomStats, 0, len(h.rooms))
	for room, members := range h.rooms {
		stats := RoomStats{Room: room, Clients: make([]string, 0, len(members))}
		for p := range members {
			stats.Clients = append(stats.Clients, p.id)
		}
		sort.Strings(stats.Clients)
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}

// Members returns how many clients are joined to room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// closeAll sends every member a going-away close frame and closes its
// connection. The pumps then remove the peers from their rooms.
func (h *Hub) closeAll() int {
	h.mu.RLock()
	var conns []*websocket.Conn
	for _, members := range h.rooms {
		for p := range members {
			if p.conn != nil {
				conns = append(conns, p.conn)
			}
		}
	}
	h.mu.RUnlock()

	deadline := time.Now().Add(writeWait)
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay shutting down"), deadline)
		_ = conn.Close()
	}
	return len(conns)
}
