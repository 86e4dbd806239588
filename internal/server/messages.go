package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/panzoom"
	"github.com/standardbeagle/domlens/internal/session"
)

// Message types.
const (
	TypeHello        = "hello"
	TypeState        = "state"
	TypeTree         = "tree"
	TypeError        = "error"
	TypePointerDown  = "pointerdown"
	TypePointerMove  = "pointermove"
	TypePointerUp    = "pointerup"
	TypePointerLeave = "pointerleave"
	TypeWheel        = "wheel"
	TypeClick        = "click"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the envelope for every WebSocket frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hello is sent once when a client connects.
type Hello struct {
	ClientID string           `json:"clientId"`
	State    session.Snapshot `json:"state"`
}

// PointerPayload carries a pointer or wheel event. Target names the node
// under the pointer; when it is absent the server hit-tests ClientX/ClientY.
// An explicit empty target is a null target.
type PointerPayload struct {
	Button  int     `json:"button"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	DeltaY  float64 `json:"deltaY"`
	Target  *string `json:"target,omitempty"`
}

func (p PointerPayload) pointer() panzoom.PointerEvent {
	return panzoom.PointerEvent{Button: panzoom.Button(p.Button), ClientX: p.ClientX, ClientY: p.ClientY}
}

func (s *Server) target(p PointerPayload) dom.Handle {
	if p.Target != nil {
		return dom.Handle(*p.Target)
	}
	return s.sess.TargetAt(p.ClientX, p.ClientY)
}

// handleMessage applies one client message. State changes reach every
// client through the session subscription; only replies go to c.
func (s *Server) handleMessage(c *client, msg Message) {
	var p PointerPayload
	if len(msg.Payload) > 0 && msg.Type != TypeTree {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError(fmt.Errorf("decode %s payload: %w", msg.Type, err))
			return
		}
	}

	switch msg.Type {
	case TypePointerDown:
		s.sess.PointerDown(p.pointer())
	case TypePointerMove:
		s.sess.PointerMove(p.pointer(), s.target(p))
	case TypePointerUp:
		s.sess.PointerUp(p.pointer())
	case TypePointerLeave:
		s.sess.PointerLeave()
	case TypeWheel:
		s.sess.Wheel(panzoom.WheelEvent{ClientX: p.ClientX, ClientY: p.ClientY, DeltaY: p.DeltaY})
	case TypeClick:
		s.sess.Click(s.target(p))
	case TypeTree:
		c.send(Message{Type: TypeTree, Payload: mustMarshal(s.sess.Tree())})
	default:
		c.sendError(fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// client is one WebSocket connection. Writes go through out so only
// writePump touches the connection for writing.
type client struct {
	id   string
	conn *websocket.Conn
	out  chan Message

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		out:  make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
}

// send queues msg, dropping it when the client is not keeping up.
func (c *client) send(msg Message) {
	select {
	case <-c.done:
	case c.out <- msg:
	default:
		debug.Warn("server", "client %s slow, dropping %s", c.id, msg.Type)
	}
}

func (c *client) sendError(err error) {
	c.send(Message{Type: TypeError, Payload: mustMarshal(map[string]string{"error": err.Error()})})
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) readPump(handle func(*client, Message)) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				debug.Log("server", "client %s read: %v", c.id, err)
			}
			return
		}
		handle(c, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				debug.Log("server", "client %s write: %v", c.id, err)
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
