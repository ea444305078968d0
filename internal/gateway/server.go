// Package gateway is the HTTP surface of the chart engine: REST endpoints for
// symbols, timeframes, bar series, indicators, search and last prices, and a
// WebSocket stream of simulated ticks.
package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"chartengine/internal/indicator"
	"chartengine/internal/logger"
	"chartengine/internal/metrics"
	"chartengine/internal/quote"
	"chartengine/internal/tickhub"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Config wires the gateway to the engine components.
type Config struct {
	Source  *quote.Source     // required
	Ticks   *tickhub.Hub      // required
	Engine  *indicator.Engine // optional live indicator values on ticks
	Metrics *metrics.Metrics  // optional
}

// Server serves the REST and WebSocket endpoints.
type Server struct {
	source *quote.Source
	ticks  *tickhub.Hub
	prom   *metrics.Metrics
	hub    *Hub
	mux    *http.ServeMux
	start  time.Time
}

// NewServer creates the gateway and registers its routes.
func NewServer(cfg Config) *Server {
	s := &Server{
		source: cfg.Source,
		ticks:  cfg.Ticks,
		prom:   cfg.Metrics,
		hub:    NewHub(cfg.Ticks, cfg.Engine, cfg.Source, cfg.Metrics),
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.RegisterRoutes(s.mux)
	return s
}

// RegisterRoutes registers all HTTP routes on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/symbols", rest(s.handleSymbols))
	mux.HandleFunc("/api/timeframes", rest(s.handleTimeframes))
	mux.HandleFunc("/api/bars", rest(s.handleBars))
	mux.HandleFunc("/api/indicators", rest(s.handleIndicators))
	mux.HandleFunc("/api/search", rest(s.handleSearch))
	mux.HandleFunc("/api/price", rest(s.handlePrice))
	mux.HandleFunc("/api/stats", rest(s.handleStats))
	mux.HandleFunc("/ws", s.handleWS)
}

// Handler returns the routes wrapped with request-ID logging.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// Hub returns the WebSocket client hub.
func (s *Server) Hub() *Hub { return s.hub }

// Close disconnects every WebSocket client.
func (s *Server) Close() {
	s.hub.CloseAll()
}

// withRequestID tags each request's context with an ID and logs completion
// at debug level.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logger.NewRequestID("http", start)
		}
		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)

		next.ServeHTTP(w, r.WithContext(ctx))

		attrs := append(logger.Attrs(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"dur", time.Since(start),
		)
		slog.DebugContext(ctx, "http request", attrs...)
	})
}
