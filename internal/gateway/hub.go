package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"chartengine/internal/fixed"
	"chartengine/internal/indicator"
	"chartengine/internal/metrics"
	"chartengine/internal/model"
	"chartengine/internal/quote"
	"chartengine/internal/tickhub"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients and bridges them to the tick simulator.
// Each client subscription is a buffered tickhub channel, so a slow socket
// never stalls the tick loop.
type Hub struct {
	ticks  *tickhub.Hub
	engine *indicator.Engine // nil disables live indicator values
	source *quote.Source     // history used to warm the engine
	prom   *metrics.Metrics  // may be nil

	Latency *LatencyTracker

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a client hub on top of the tick simulator.
func NewHub(ticks *tickhub.Hub, engine *indicator.Engine, source *quote.Source, prom *metrics.Metrics) *Hub {
	if source == nil {
		source = quote.NewSource()
	}
	return &Hub{
		ticks:   ticks,
		engine:  engine,
		source:  source,
		prom:    prom,
		Latency: NewLatencyTracker(10000),
		clients: make(map[*Client]bool),
	}
}

// HandleWSRequest registers an upgraded connection, subscribes it to the
// requested symbols and starts its pumps. tf selects the history used for
// live indicator values.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, symbols []string, tf string) *Client {
	c := newClient(h, conn, tf)

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.prom != nil {
		h.prom.WSClients.Set(float64(count))
	}
	log.Printf("[gateway] ws client connected (%d total)", count)

	for _, s := range symbols {
		if !c.subscribe(s) {
			c.sendError("unknown symbol: " + s)
		}
	}

	go c.writePump()
	go c.readPump()
	return c
}

// RemoveClient unregisters c and releases its subscriptions. Safe to call
// more than once.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		if h.prom != nil {
			h.prom.WSClients.Set(float64(count))
		}
		log.Printf("[gateway] ws client disconnected (%d total)", count)
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.RemoveClient(c)
	}
}

// knows reports whether the simulator ticks symbol.
func (h *Hub) knows(symbol string) bool {
	return h.ticks.LastPrice(symbol) != 0
}

// engineKey scopes warmed indicator state to a timeframe.
func engineKey(symbol, tf string) string {
	return tf + ":" + symbol
}

// warm feeds the symbol's history into the live indicator engine.
func (h *Hub) warm(symbol, tf string) {
	if h.engine == nil || len(h.engine.Specs()) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	series := h.source.Bars(ctx, symbol, tf)
	h.engine.Warm(engineKey(symbol, tf), series.Bars)
}

// tickMessage encodes a tick, annotated with live indicator values.
func (h *Hub) tickMessage(t model.Tick, tf string, initial bool) []byte {
	msg := TickMessage{
		Type:    "tick",
		Symbol:  t.Symbol,
		Price:   t.Price,
		TS:      t.TS,
		Initial: initial,
	}
	if p, ok := model.Profile(t.Symbol); ok && p.Base > 0 {
		msg.ChangePct = fixed.Oscillator((t.Price - p.Base) / p.Base * 100)
	}
	if h.engine != nil {
		msg.Indicators = h.engine.ProcessPeek(engineKey(t.Symbol, tf), t.Price)
		for i := range msg.Indicators {
			msg.Indicators[i].Symbol = t.Symbol
		}
	}
	data, _ := json.Marshal(msg)
	return data
}

func (h *Hub) dropped(symbol string) {
	if h.prom != nil {
		h.prom.TickDropsTotal.WithLabelValues(symbol).Inc()
	}
}
