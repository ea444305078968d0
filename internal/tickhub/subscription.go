package tickhub

import (
	"sync"

	"chartengine/internal/model"
)

// Subscription is one registered observer of a symbol.
type Subscription struct {
	hub    *Hub
	symbol string
	id     uint64

	cb Callback

	// channel form
	mu     sync.Mutex
	ch     chan model.Tick
	closed bool
}

// Subscribe registers cb for every tick of symbol. Multiple subscribers per
// symbol are invoked in registration order.
func (h *Hub) Subscribe(symbol string, cb Callback) *Subscription {
	s := &Subscription{hub: h, symbol: symbol, cb: cb}
	h.add(s)
	return s
}

// SubscribeChan registers a buffered channel receiving every tick of symbol.
// Sends never block the tick loop: when the buffer is full the tick is
// dropped for this subscriber. The channel is closed by Cancel.
func (h *Hub) SubscribeChan(symbol string, buf int) (<-chan model.Tick, *Subscription) {
	ch := make(chan model.Tick, buf)
	s := &Subscription{hub: h, symbol: symbol, ch: ch}
	h.add(s)
	return ch, s
}

func (h *Hub) add(s *Subscription) {
	h.mu.Lock()
	h.nextID++
	s.id = h.nextID
	h.subs[s.symbol] = append(h.subs[s.symbol], s)
	h.mu.Unlock()
}

// Symbol returns the subscribed symbol.
func (s *Subscription) Symbol() string { return s.symbol }

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	h := s.hub
	h.mu.Lock()
	list := h.subs[s.symbol]
	for i, other := range list {
		if other.id == s.id {
			if len(list) == 1 {
				delete(h.subs, s.symbol)
			} else {
				h.subs[s.symbol] = append(list[:i:i], list[i+1:]...)
			}
			break
		}
	}
	h.mu.Unlock()

	if s.ch != nil {
		s.mu.Lock()
		if !s.closed {
			s.closed = true
			close(s.ch)
		}
		s.mu.Unlock()
	}
}

func (s *Subscription) deliver(t model.Tick) {
	if s.cb != nil {
		s.cb(t.Price)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- t:
	default:
		if s.hub.onDrop != nil {
			s.hub.onDrop(s.symbol)
		}
	}
}
