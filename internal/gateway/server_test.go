package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chartengine/internal/indicator"
	"chartengine/internal/model"
	"chartengine/internal/quote"
	"chartengine/internal/synth"
	"chartengine/internal/tickhub"

	"github.com/gorilla/websocket"
)

func testSynth() *synth.Synthesizer {
	return &synth.Synthesizer{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }}
}

func newTestServer(t *testing.T) (*Server, *tickhub.Hub, *httptest.Server) {
	t.Helper()
	gen := testSynth()
	ticks := tickhub.New(
		tickhub.WithSynthesizer(gen),
		tickhub.WithRand(func() float64 { return 0.5 }),
		tickhub.WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)
	s := NewServer(Config{
		Source: quote.NewSource(quote.WithSynthesizer(gen)),
		Ticks:  ticks,
		Engine: indicator.NewEngine([]indicator.Spec{{Type: "SMA", Period: 20}, {Type: "RSI", Period: 14}}),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		srv.Close()
	})
	return s, ticks, srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header on %s", url)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestSymbolsAndTimeframes(t *testing.T) {
	_, ticks, srv := newTestServer(t)

	var symbols []SymbolInfo
	if code := getJSON(t, srv.URL+"/api/symbols", &symbols); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(symbols) != len(model.Symbols()) {
		t.Fatalf("got %d symbols", len(symbols))
	}
	for _, s := range symbols {
		if s.Price != ticks.LastPrice(s.Symbol) {
			t.Errorf("%s price %v, want %v", s.Symbol, s.Price, ticks.LastPrice(s.Symbol))
		}
	}

	var tfs []model.TimeframeSpec
	getJSON(t, srv.URL+"/api/timeframes", &tfs)
	if len(tfs) != 7 || tfs[0].Label != "1m" || tfs[6].Label != "1W" {
		t.Errorf("timeframes = %+v", tfs)
	}
}

func TestBars(t *testing.T) {
	_, _, srv := newTestServer(t)

	var series quote.Series
	if code := getJSON(t, srv.URL+"/api/bars?symbol=AAPL&tf=1h", &series); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	want := testSynth().Generate("AAPL", "1h")
	if series.Origin != quote.OriginSynthetic || len(series.Bars) != len(want) || series.Bars[0] != want[0] {
		t.Errorf("unexpected series: origin %s, %d bars", series.Origin, len(series.Bars))
	}

	if code := getJSON(t, srv.URL+"/api/bars?symbol=AAPL", nil); code != http.StatusBadRequest {
		t.Errorf("missing tf: status %d", code)
	}

	getJSON(t, srv.URL+"/api/bars?symbol=NOPE&tf=1h", &series)
	if len(series.Bars) != 0 {
		t.Errorf("unknown symbol should yield no bars, got %d", len(series.Bars))
	}
}

func TestIndicators(t *testing.T) {
	_, _, srv := newTestServer(t)
	bars := testSynth().Generate("MSFT", "1D")

	var out IndicatorOut
	getJSON(t, srv.URL+"/api/indicators?symbol=MSFT&tf=1D&kind=sma&period=10", &out)
	if len(out.Points) != len(bars)-9 {
		t.Errorf("sma points = %d, want %d", len(out.Points), len(bars)-9)
	}

	out = IndicatorOut{}
	getJSON(t, srv.URL+"/api/indicators?symbol=MSFT&tf=1D&kind=bollinger", &out)
	if out.Bands == nil || len(out.Bands.Upper) != len(bars)-19 {
		t.Errorf("bollinger = %+v", out.Bands)
	}

	out = IndicatorOut{}
	getJSON(t, srv.URL+"/api/indicators?symbol=MSFT&tf=1D&kind=macd", &out)
	if out.MACD == nil || len(out.MACD.MACDLine) != len(bars)-25 || len(out.MACD.Histogram) == 0 {
		t.Errorf("macd lengths unexpected")
	}

	out = IndicatorOut{}
	getJSON(t, srv.URL+"/api/indicators?symbol=MSFT&tf=1D&kind=rsi", &out)
	if len(out.Points) != len(bars)-14 {
		t.Errorf("rsi points = %d", len(out.Points))
	}

	if code := getJSON(t, srv.URL+"/api/indicators?symbol=MSFT&tf=1D&kind=vwap", nil); code != http.StatusBadRequest {
		t.Errorf("unknown kind: status %d", code)
	}
	if code := getJSON(t, srv.URL+"/api/indicators?symbol=MSFT&tf=1D&kind=sma&period=ten", nil); code != http.StatusBadRequest {
		t.Errorf("bad period: status %d", code)
	}
}

func TestIndicators_BollingerStdDev(t *testing.T) {
	_, _, srv := newTestServer(t)
	base := srv.URL + "/api/indicators?symbol=MSFT&tf=1D&kind=bollinger&stddev="

	for _, v := range []string{"NaN", "Inf", "-Inf", "-1", "two"} {
		var e errorOut
		if code := getJSON(t, base+v, &e); code != http.StatusBadRequest {
			t.Errorf("stddev=%s: status %d, want 400", v, code)
		}
		if e.Error == "" {
			t.Errorf("stddev=%s: expected an error message", v)
		}
	}

	var out IndicatorOut
	if code := getJSON(t, base+"0", &out); code != http.StatusOK {
		t.Fatalf("stddev=0: status %d", code)
	}
	if out.Bands == nil || len(out.Bands.Upper) == 0 {
		t.Fatal("stddev=0: expected bands")
	}
	if out.Bands.Upper[0].Value != out.Bands.Middle[0].Value || out.Bands.Lower[0].Value != out.Bands.Middle[0].Value {
		t.Errorf("stddev=0 should collapse the bands: %+v", out.Bands.Upper[0])
	}
}

func TestPriceAndSearch(t *testing.T) {
	_, ticks, srv := newTestServer(t)

	var p PriceOut
	getJSON(t, srv.URL+"/api/price?symbol=ETH-USD", &p)
	if p.Price != ticks.LastPrice("ETH-USD") {
		t.Errorf("price = %v", p.Price)
	}
	if code := getJSON(t, srv.URL+"/api/price?symbol=NOPE", nil); code != http.StatusNotFound {
		t.Errorf("unknown symbol: status %d", code)
	}

	var results []quote.SearchResult
	if code := getJSON(t, srv.URL+"/api/search?q=apple", &results); code != http.StatusOK || len(results) != 0 {
		t.Errorf("search without provider: %d %v", code, results)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, _, srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/symbols", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	_, _, srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/timeframes", nil)
	req.Header.Set("X-Request-ID", "abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") != "abc" {
		t.Errorf("request id not echoed")
	}
}

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readTick(t *testing.T, conn *websocket.Conn) TickMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg TickMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWS_StreamsTicks(t *testing.T) {
	s, ticks, srv := newTestServer(t)
	conn := dialWS(t, srv, "symbols=AAPL&tf=1h")

	first := readTick(t, conn)
	if !first.Initial || first.Symbol != "AAPL" || first.Price != ticks.LastPrice("AAPL") {
		t.Fatalf("initial message = %+v", first)
	}
	if len(first.Indicators) != 2 || first.Indicators[0].Name != "SMA_20" || first.Indicators[0].Symbol != "AAPL" {
		t.Errorf("expected live indicator values, got %+v", first.Indicators)
	}

	waitFor(t, func() bool { return ticks.SubscriberCount() == 1 })
	ticks.Step()

	msg := readTick(t, conn)
	if msg.Type != "tick" || msg.Initial || msg.Symbol != "AAPL" {
		t.Fatalf("tick message = %+v", msg)
	}
	if msg.Price != ticks.LastPrice("AAPL") {
		t.Errorf("price %v, want %v", msg.Price, ticks.LastPrice("AAPL"))
	}
	if !msg.TS.Equal(time.Unix(1_700_000_000, 0)) {
		t.Errorf("ts = %v", msg.TS)
	}
	if s.Hub().ClientCount() != 1 {
		t.Errorf("client count = %d", s.Hub().ClientCount())
	}
}

func TestWS_SubscribeUnsubscribeAndCleanup(t *testing.T) {
	s, ticks, srv := newTestServer(t)
	conn := dialWS(t, srv, "")

	if err := conn.WriteJSON(ControlMsg{Type: "subscribe", Symbols: []string{"TSLA", "NOPE"}}); err != nil {
		t.Fatal(err)
	}

	// one error for NOPE and one initial tick for TSLA, in either order
	var sawError, sawTSLA bool
	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var raw map[string]any
		if err := conn.ReadJSON(&raw); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch raw["type"] {
		case "error":
			sawError = true
		case "tick":
			sawTSLA = raw["symbol"] == "TSLA"
		}
	}
	if !sawError || !sawTSLA {
		t.Fatalf("error=%v tsla=%v", sawError, sawTSLA)
	}
	waitFor(t, func() bool { return ticks.SubscriberCount() == 1 })

	conn.WriteJSON(ControlMsg{Type: "unsubscribe", Symbols: []string{"TSLA"}})
	waitFor(t, func() bool { return ticks.SubscriberCount() == 0 })

	conn.WriteJSON(ControlMsg{Type: "subscribe", Symbols: []string{"NVDA"}})
	waitFor(t, func() bool { return ticks.SubscriberCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return s.Hub().ClientCount() == 0 && ticks.SubscriberCount() == 0 })
}

func TestWS_Ping(t *testing.T) {
	_, _, srv := newTestServer(t)
	conn := dialWS(t, srv, "")

	conn.WriteJSON(ControlMsg{Ping: 42})
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var pong struct {
		Type string `json:"type"`
		Ping int64  `json:"ping"`
	}
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong.Type != "pong" || pong.Ping != 42 {
		t.Errorf("pong = %+v", pong)
	}
}

func TestStats(t *testing.T) {
	_, _, srv := newTestServer(t)
	var st Stats
	if code := getJSON(t, srv.URL+"/api/stats", &st); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if st.Goroutines == 0 || st.TickerActive {
		t.Errorf("stats = %+v", st)
	}
}
