package gateway

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"chartengine/internal/model"
	"chartengine/internal/tickhub"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
	tickBuffer     = 64
)

// outbound is one queued frame; tickTS is set for tick frames so delivery
// latency can be measured at write time.
type outbound struct {
	data   []byte
	tickTS time.Time
}

// Client represents a single WebSocket peer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	tf   string

	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once

	subMu sync.Mutex
	subs  map[string]*tickhub.Subscription
}

func newClient(h *Hub, conn *websocket.Conn, tf string) *Client {
	if _, ok := model.Timeframe(tf); !ok {
		tf = "1D"
	}
	return &Client{
		hub:  h,
		conn: conn,
		tf:   tf,
		send: make(chan outbound, sendBuffer),
		done: make(chan struct{}),
		subs: make(map[string]*tickhub.Subscription),
	}
}

// Symbols returns the client's subscribed symbols.
func (c *Client) Symbols() []string {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	out := make([]string, 0, len(c.subs))
	for s := range c.subs {
		out = append(out, s)
	}
	return out
}

// subscribe starts forwarding ticks for symbol. Returns false for symbols
// the simulator does not know.
func (c *Client) subscribe(symbol string) bool {
	symbol = strings.TrimSpace(symbol)
	if !c.hub.knows(symbol) {
		return false
	}

	c.subMu.Lock()
	select {
	case <-c.done:
		c.subMu.Unlock()
		return false
	default:
	}
	if _, ok := c.subs[symbol]; ok {
		c.subMu.Unlock()
		return true
	}
	ch, sub := c.hub.ticks.SubscribeChan(symbol, tickBuffer)
	c.subs[symbol] = sub
	c.subMu.Unlock()

	go c.forward(symbol, ch)
	return true
}

func (c *Client) unsubscribe(symbol string) {
	c.subMu.Lock()
	sub := c.subs[symbol]
	delete(c.subs, symbol)
	c.subMu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// forward warms live indicators, sends the current price, then relays ticks
// until the subscription is cancelled. A full send buffer drops the tick.
func (c *Client) forward(symbol string, ch <-chan model.Tick) {
	c.hub.warm(symbol, c.tf)

	initial := model.Tick{Symbol: symbol, Price: c.hub.ticks.LastPrice(symbol), TS: time.Now().UTC()}
	c.enqueue(outbound{data: c.hub.tickMessage(initial, c.tf, true)}, symbol)

	for t := range ch {
		if !c.enqueue(outbound{data: c.hub.tickMessage(t, c.tf, false), tickTS: t.TS}, symbol) {
			return
		}
	}
}

// enqueue queues a frame without blocking. Returns false once the client
// is closed.
func (c *Client) enqueue(m outbound, symbol string) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- m:
	case <-c.done:
		return false
	default:
		c.hub.dropped(symbol)
	}
	return true
}

func (c *Client) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.enqueue(outbound{data: data}, "")
}

func (c *Client) sendError(msg string) {
	c.sendJSON(errorOut{Type: "error", Error: msg})
}

// close cancels every subscription and stops the pumps.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.subMu.Lock()
		close(c.done)
		subs := c.subs
		c.subs = map[string]*tickhub.Subscription{}
		c.subMu.Unlock()

		for _, sub := range subs {
			sub.Cancel()
		}
		c.conn.Close()
	})
}

func (c *Client) pong(ping int64) {
	c.sendJSON(map[string]any{
		"type":      "pong",
		"ping":      ping,
		"server_ts": time.Now().UnixMilli(),
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.RemoveClient(c)
	}()

	for {
		select {
		case <-c.done:
			return
		case m := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, m.data); err != nil {
				return
			}
			if !m.tickTS.IsZero() {
				c.hub.Latency.Observe(m.tickTS)
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer c.hub.RemoveClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ControlMsg
		if json.Unmarshal(raw, &msg) != nil {
			c.sendError("invalid message")
			continue
		}

		switch strings.ToLower(msg.Type) {
		case "subscribe":
			for _, s := range msg.Symbols {
				if !c.subscribe(s) {
					c.sendError("unknown symbol: " + s)
				}
			}
		case "unsubscribe":
			for _, s := range msg.Symbols {
				c.unsubscribe(strings.TrimSpace(s))
			}
		case "ping":
			c.pong(msg.Ping)
		default:
			if msg.Ping > 0 {
				c.pong(msg.Ping)
				continue
			}
			c.sendError("unknown message type: " + msg.Type)
		}
	}
}
