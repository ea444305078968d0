package gateway

import (
	"runtime"
	"time"

	"chartengine/internal/tickhub"
)

// Stats is the /api/stats snapshot of process and stream state.
type Stats struct {
	UptimeSec    int64        `json:"uptime_sec"`
	Goroutines   int          `json:"goroutines"`
	HeapAllocMB  float64      `json:"heap_alloc_mb"`
	SysMB        float64      `json:"sys_mb"`
	GCRuns       uint32       `json:"gc_runs"`
	WSClients    int          `json:"ws_clients"`
	Subscribers  int          `json:"tick_subscribers"`
	TickerActive bool         `json:"ticker_running"`
	TickLatency  LatencyStats `json:"tick_latency"`
	TS           string       `json:"ts"`
}

// CollectStats gathers runtime and streaming statistics.
func CollectStats(start time.Time, hub *Hub, ticks *tickhub.Hub) Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return Stats{
		UptimeSec:    int64(time.Since(start).Seconds()),
		Goroutines:   runtime.NumGoroutine(),
		HeapAllocMB:  float64(ms.HeapAlloc) / 1024 / 1024,
		SysMB:        float64(ms.Sys) / 1024 / 1024,
		GCRuns:       ms.NumGC,
		WSClients:    hub.ClientCount(),
		Subscribers:  ticks.SubscriberCount(),
		TickerActive: ticks.Running(),
		TickLatency:  hub.Latency.Stats(),
		TS:           time.Now().UTC().Format(time.RFC3339Nano),
	}
}
