package service

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lucaspiller/n1core/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one connected WebSocket subscriber to a Server's trace feed.
type client struct {
	conn *websocket.Conn
	sub  *Subscription
}

// ServeHTTP upgrades the connection and starts the client's write pump; n1's
// trace protocol is one-directional (server to client), so there is no
// read pump beyond keeping the connection alive for pings.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("service: websocket upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, sub: s.broadcaster.Subscribe()}
	go c.readPump(s.broadcaster)
	go c.writePump()
}

func (c *client) readPump(b *Broadcaster) {
	defer func() {
		b.Unsubscribe(c.sub)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.sub.Channel:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(traceEventJSONOf(ev)); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// traceEventJSON is TraceEvent's wire shape: a lowercase kind name plus its
// fields, so the protocol stays stable even if core.TraceEventKind's
// underlying int values change.
type traceEventJSON struct {
	Kind  string `json:"kind"`
	PC    uint16 `json:"pc"`
	Tick  uint16 `json:"tick"`
	Fault string `json:"fault,omitempty"`
}

func traceEventJSONOf(ev core.TraceEvent) traceEventJSON {
	out := traceEventJSON{Kind: ev.Kind.String(), PC: ev.PC, Tick: ev.Tick}
	if ev.Kind == core.TraceFault {
		out.Fault = ev.Fault.String()
	}
	return out
}
