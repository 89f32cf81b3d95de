package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	sendBuffer = 16
)

// client is one connected party. Its handle doubles as the party's
// connection handle everywhere in the engine.
type client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	send chan outboundEvent

	mu     sync.Mutex
	retry  *time.Timer
	closed bool
	once   sync.Once
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *client {
	return &client{
		id:   id,
		conn: conn,
		hub:  hub,
		send: make(chan outboundEvent, sendBuffer),
	}
}

func (c *client) run() {
	go c.writePump()
	go c.readPump()
}

// enqueue pushes an event to the write pump without blocking; a full
// buffer drops the event for this slow client. Events arriving after
// shutdown are dropped so timer callbacks racing a disconnect never
// send on the closed channel.
func (c *client) enqueue(evt outboundEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- evt:
	default:
		log.Printf("[ws] dropping %s event for slow client %s", evt.Type, c.id)
	}
}

// setRetry replaces the pending matchmaking retry, stopping any
// previous one. After shutdown no new retry is armed.
func (c *client) setRetry(t *time.Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.retry != nil {
		c.retry.Stop()
	}
	if c.closed {
		if t != nil {
			t.Stop()
		}
		c.retry = nil
		return
	}
	c.retry = t
}

func (c *client) stopRetry() {
	c.setRetry(nil)
}

// shutdown marks the client closed, stops its retry timer and closes
// the send channel exactly once. The closed flag and the close happen
// under the same lock enqueue takes, so no sender can slip in between.
func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	close(c.send)
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error from %s: %v", c.id, err)
			}
			return
		}

		var evt inboundEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("[ws] malformed frame from %s: %v", c.id, err)
			c.enqueue(newOutbound(eventError, errorPayload{Message: "malformed event"}))
			continue
		}

		c.hub.dispatch(c, evt)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(evt); err != nil {
				log.Printf("[ws] write error to %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func newOutbound(event string, payload any) outboundEvent {
	return outboundEvent{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	}
}
