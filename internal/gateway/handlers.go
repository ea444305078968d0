package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chartengine/internal/indicator"
	"chartengine/internal/model"
)

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[gateway] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorOut{Error: msg})
}

// rest wraps a GET handler with CORS and method checks.
func rest(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodGet, http.MethodHead:
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols := model.Symbols()
	out := make([]SymbolInfo, 0, len(symbols))
	for _, sym := range symbols {
		p, _ := model.Profile(sym)
		out = append(out, SymbolInfo{
			Symbol:     p.Symbol,
			Name:       p.Name,
			Base:       p.Base,
			Volatility: p.Volatility,
			Price:      s.ticks.LastPrice(sym),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTimeframes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Timeframes())
}

// seriesParams reads the required symbol and tf query parameters.
func seriesParams(w http.ResponseWriter, r *http.Request) (symbol, tf string, ok bool) {
	q := r.URL.Query()
	symbol = strings.TrimSpace(q.Get("symbol"))
	tf = strings.TrimSpace(q.Get("tf"))
	if symbol == "" || tf == "" {
		writeError(w, http.StatusBadRequest, "symbol and tf are required")
		return "", "", false
	}
	return symbol, tf, true
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	symbol, tf, ok := seriesParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.source.Bars(r.Context(), symbol, tf))
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	symbol, tf, ok := seriesParams(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	kind := strings.ToLower(strings.TrimSpace(q.Get("kind")))

	var perr error
	intParam := func(name string, def int) int {
		v := q.Get(name)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil && perr == nil {
			perr = err
		}
		return n
	}

	series := s.source.Bars(r.Context(), symbol, tf)
	out := IndicatorOut{Symbol: symbol, Timeframe: tf, Kind: kind, Origin: series.Origin}

	start := time.Now()
	switch kind {
	case "sma":
		out.Points = indicator.CalcSMA(series.Bars, intParam("period", 20))
	case "ema":
		out.Points = indicator.CalcEMA(series.Bars, intParam("period", 50))
	case "rsi":
		out.Points = indicator.CalcRSI(series.Bars, intParam("period", indicator.DefaultRSIPeriod))
	case "bollinger":
		stdDev := indicator.DefaultBollingerStdDev
		if v := q.Get("stddev"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err == nil && (math.IsNaN(f) || math.IsInf(f, 0) || f < 0) {
				err = fmt.Errorf("stddev must be a finite non-negative number, got %q", v)
			}
			if err != nil {
				perr = err
			}
			stdDev = f
		}
		bands := indicator.CalcBollinger(series.Bars, intParam("period", indicator.DefaultBollingerPeriod), stdDev)
		out.Bands = &bands
	case "macd":
		res := indicator.CalcMACD(series.Bars,
			intParam("fast", indicator.DefaultMACDFast),
			intParam("slow", indicator.DefaultMACDSlow),
			intParam("signal", indicator.DefaultMACDSignal))
		out.MACD = &res
	default:
		writeError(w, http.StatusBadRequest, "kind must be one of sma, ema, bollinger, rsi, macd")
		return
	}
	if perr != nil {
		writeError(w, http.StatusBadRequest, "invalid numeric parameter: "+perr.Error())
		return
	}
	if s.prom != nil {
		s.prom.IndicatorDur.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Search(r.Context(), r.URL.Query().Get("q")))
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	price := s.ticks.LastPrice(symbol)
	if price == 0 {
		writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, PriceOut{Symbol: symbol, Price: price})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CollectStats(s.start, s.hub, s.ticks))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade error: %v", err)
		return
	}
	q := r.URL.Query()
	var symbols []string
	for _, sym := range strings.Split(q.Get("symbols"), ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	s.hub.HandleWSRequest(conn, symbols, q.Get("tf"))
}
