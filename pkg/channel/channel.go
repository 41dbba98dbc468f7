// Package channel is the client side of the per-project event room.
//
// A Channel holds at most one websocket connection. Connect joins a room and
// returns the stream of events other clients publish to it; Disconnect leaves
// the room and closes that stream.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/logging"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	eventQueue = 64
)

// Channel is a reconnectable room connection owned by a single store.
type Channel struct {
	url      string
	clientID string
	dialer   *websocket.Dialer
	logger   *logrus.Entry

	mu   sync.Mutex
	conn *connection
}

type connection struct {
	ws      *websocket.Conn
	room    string
	events  chan Event
	done    chan struct{}
	writeMu sync.Mutex
	once    sync.Once
}

// New creates a Channel for the relay at rawURL (for example
// "ws://localhost:4000/ws"). Each Channel gets a fresh client id.
func New(rawURL string) *Channel {
	return &Channel{
		url:      rawURL,
		clientID: uuid.NewString(),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logging.NewLogger("channel"),
	}
}

// ClientID identifies this client on presence events.
func (c *Channel) ClientID() string {
	return c.clientID
}

// Room returns the joined room, or "" when disconnected.
func (c *Channel) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ""
	}
	return c.conn.room
}

// Connected reports whether a room is joined.
func (c *Channel) Connected() bool {
	return c.Room() != ""
}

// Connect joins roomID, leaving any previously joined room first. The
// returned channel delivers inbound events in arrival order and is closed
// when the connection ends.
func (c *Channel) Connect(ctx context.Context, roomID string) (<-chan Event, error) {
	if roomID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "room id is required")
	}
	if err := c.Disconnect(); err != nil {
		c.logger.WithError(err).Debug("previous room did not close cleanly")
	}

	target, err := c.roomURL(roomID)
	if err != nil {
		return nil, err
	}
	ws, resp, err := c.dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeChannelFailed, "failed to join room").
			WithDetail("room", roomID)
	}

	conn := &connection{
		ws:     ws,
		room:   roomID,
		events: make(chan Event, eventQueue),
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readPump(conn)
	go c.pingPump(conn)

	c.logger.WithFields(logrus.Fields{"room": roomID, "client_id": c.clientID}).Debug("joined room")
	return conn.events, nil
}

// Disconnect leaves the current room. It is a no-op when no room is joined.
func (c *Channel) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	conn.writeMu.Lock()
	_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.writeMu.Unlock()

	conn.shutdown()
	c.logger.WithField("room", conn.room).Debug("left room")
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return errors.Wrap(err, errors.ErrCodeChannelFailed, "failed to close room cleanly")
	}
	return nil
}

// Publish sends ev to every other client in the joined room. The client id is
// stamped on the event and presence events default to the joined room.
func (c *Channel) Publish(ev Event) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.ChannelClosed(string(ev.Type))
	}

	ev.ClientID = c.clientID
	if ev.ProjectID == "" {
		ev.ProjectID = conn.room
	}
	if err := ev.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "refusing to publish malformed event")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode event")
	}

	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, errors.ErrCodeChannelFailed, fmt.Sprintf("failed to publish %s", ev.Type))
	}
	return nil
}

func (c *Channel) roomURL(roomID string) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid channel url")
	}
	q := u.Query()
	q.Set("room", roomID)
	q.Set("client", c.clientID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Channel) readPump(conn *connection) {
	defer close(conn.events)
	defer c.release(conn)

	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			select {
			case <-conn.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.WithError(err).WithField("room", conn.room).Warn("room connection lost")
				}
			}
			return
		}

		ev, err := Decode(data)
		if err != nil {
			c.logger.WithError(err).WithField("room", conn.room).Warn("dropping malformed event")
			continue
		}
		if ev.ClientID == c.clientID {
			continue
		}

		select {
		case conn.events <- ev:
		case <-conn.done:
			return
		}
	}
}

// release shuts conn down and forgets it if it is still the current connection.
func (c *Channel) release(conn *connection) {
	conn.shutdown()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Channel) pingPump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			conn.writeMu.Lock()
			err := conn.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			conn.writeMu.Unlock()
			if err != nil {
				conn.shutdown()
				return
			}
		case <-conn.done:
			return
		}
	}
}

func (conn *connection) shutdown() {
	conn.once.Do(func() {
		close(conn.done)
		_ = conn.ws.Close()
	})
}
