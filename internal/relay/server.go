// Package relay provides the room broadcast service clients publish task
// events through. Every message a client sends is forwarded to the other
// clients joined to the same room; the sender never receives its own message.
package relay

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grovetools/uptask/pkg/channel"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 1 << 20
	sendQueue      = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server manages the relay's HTTP server.
type Server struct {
	logger    *logrus.Entry
	hub       *Hub
	server    *http.Server
	startedAt time.Time
}

// New creates a new Server instance.
func New(logger *logrus.Entry) *Server {
	return &Server{
		logger:    logger,
		hub:       NewHub(logger),
		startedAt: time.Now(),
	}
}

// Hub exposes room membership.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the relay's routes: /ws, /health and /api/rooms.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/ws", s.handleWS)

	return h2c.NewHandler(mux, &http2.Server{})
}

// ListenAndServe starts the relay on addr. It blocks until the server stops or fails.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener.
func (s *Server) Serve(listener net.Listener) error {
	s.server = &http.Server{Handler: s.Handler()}
	s.logger.WithField("addr", listener.Addr().String()).Info("Relay listening")
	err := s.server.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down relay...")
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	// Hijacked websocket connections are invisible to http.Server.Shutdown.
	if n := s.hub.closeAll(); n > 0 {
		s.logger.WithField("clients", n).Debug("closed websocket clients")
	}
	return err
}

// handleRooms returns room membership as JSON.
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		StartedAt time.Time   `json:"started_at"`
		Rooms     []RoomStats `json:"rooms"`
	}{s.startedAt, s.hub.Rooms()})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}
	id := r.URL.Query().Get("client")
	if id == "" {
		id = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	p := &peer{id: id, room: room, send: make(chan []byte, sendQueue), conn: conn}
	s.hub.join(p)
	log := s.logger.WithFields(logrus.Fields{"room": room, "client_id": id})
	log.Debug("client joined")

	go s.writePump(conn, p)
	s.readPump(conn, p, log)

	s.hub.leave(p)
	log.Debug("client left")
}

func (s *Server) readPump(conn *websocket.Conn, p *peer, log *logrus.Entry) {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		ev, err := channel.Decode(data)
		if err != nil {
			log.WithError(err).Warn("rejecting malformed event")
			continue
		}
		if ev.Room() != p.room {
			log.WithField("event_room", ev.Room()).Warn("rejecting event for another room")
			continue
		}
		n := s.hub.broadcast(p, data)
		log.WithFields(logrus.Fields{"type": ev.Type, "delivered": n}).Debug("relayed event")
	}
}

func (s *Server) writePump(conn *websocket.Conn, p *peer) {
	for msg := range p.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = conn.Close()
			s.hub.leave(p)
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
