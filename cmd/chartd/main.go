// cmd/chartd serves the chart engine: REST bar and indicator endpoints, a
// WebSocket tick stream, and Prometheus metrics.
//
// Configuration comes from the environment (optionally a .env file); see
// config.Config for the variables.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chartengine/config"
	"chartengine/internal/gateway"
	"chartengine/internal/indicator"
	"chartengine/internal/logger"
	"chartengine/internal/metrics"
	"chartengine/internal/model"
	"chartengine/internal/quote"
	redisstore "chartengine/internal/store/redis"
	sqlitestore "chartengine/internal/store/sqlite"
	"chartengine/internal/tickhub"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[chartd] %v", err)
	}
	slogger := logger.Init("chartd", cfg.LogLevel)
	slogger.Info("starting", slog.String("http_addr", cfg.HTTPAddr), slog.Duration("tick_interval", cfg.TickInterval))

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(prometheus.DefaultRegisterer)
	health := metrics.NewHealthStatus()
	health.SetDependencies(cfg.RedisAddr != "", cfg.SQLitePath != "", cfg.QuoteEnabled)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var sourceOpts []quote.SourceOption

	// ---- Redis cache (optional) ----
	var cache *redisstore.Cache
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		cache, err = redisstore.New(redisstore.CacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			log.Printf("[chartd] WARNING: redis init failed: %v (continuing without cache)", err)
		} else {
			defer cache.Close()
			rdb = cache.Client()
			health.CheckRedis(ctx, rdb)
			cache.Breaker().OnStateChange = func(from, to redisstore.State) {
				prom.RedisCircuitBreakerState.Set(float64(to))
				if to == redisstore.StateOpen {
					prom.RedisCircuitBreakerTrips.Inc()
				}
				log.Printf("[chartd] redis circuit breaker %s -> %s", from, to)
			}
			sourceOpts = append(sourceOpts, quote.WithCache(cache))
		}
	}

	// ---- SQLite archive (optional) ----
	var archive *sqlitestore.Store
	var sqlDB *sql.DB
	if cfg.SQLitePath != "" {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		archive, err = sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			log.Printf("[chartd] WARNING: sqlite init failed: %v (continuing without archive)", err)
		} else {
			defer archive.Close()
			sqlDB = archive.DB()
			health.CheckSQLite(ctx, sqlDB)
			archive.OnCommit = func(d time.Duration) {
				prom.SQLiteCommitDur.Observe(d.Seconds())
			}
			sourceOpts = append(sourceOpts, quote.WithArchive(archive))
		}
	}
	health.StartLivenessChecker(ctx, rdb, sqlDB, 10*time.Second)

	// ---- Quote source ----
	if cfg.QuoteEnabled {
		sourceOpts = append(sourceOpts, quote.WithProvider(quote.NewYahoo(quote.YahooConfig{
			BaseURL: cfg.QuoteBaseURL,
			Proxy:   cfg.QuoteProxy,
			Timeout: cfg.QuoteTimeout,
		})))
		log.Printf("[chartd] real data enabled via %s", cfg.QuoteBaseURL)
	}
	source := quote.NewSource(sourceOpts...)
	source.OnServe = func(origin quote.Origin, elapsed time.Duration) {
		prom.BarsServedTotal.WithLabelValues(string(origin)).Inc()
		if origin == quote.OriginSynthetic {
			prom.GenerateDur.Observe(elapsed.Seconds())
		}
	}
	source.OnCacheLookup = func(hit bool) {
		if hit {
			prom.CacheHits.Inc()
		} else {
			prom.CacheMisses.Inc()
		}
	}
	source.OnProviderError = func(symbol, tf string, err error) {
		prom.ProviderFailures.Inc()
	}

	// ---- Tick simulation ----
	ticks := tickhub.New(
		tickhub.WithInterval(cfg.TickInterval),
		tickhub.WithLogger(slogger),
		tickhub.WithOnTick(func(t model.Tick) {
			prom.TicksTotal.Inc()
			health.SetLastTickTime(t.TS)
		}),
		tickhub.WithOnDrop(func(symbol string) {
			prom.TickDropsTotal.WithLabelValues(symbol).Inc()
		}),
	)

	// Publish every tick to Redis pub/sub off the tick loop.
	if cache != nil {
		for _, sym := range ticks.Symbols() {
			ch, sub := ticks.SubscribeChan(sym, 256)
			defer sub.Cancel()
			go cache.RunTicks(ctx, ch)
		}
	}

	ticks.Start(ctx)
	health.SetTickerRunning(true)

	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				prom.Subscribers.Set(float64(ticks.SubscriberCount()))
			}
		}
	}()

	// ---- Gateway ----
	engine := indicator.NewEngine(cfg.IndicatorSpecs())
	gw := gateway.NewServer(gateway.Config{
		Source:  source,
		Ticks:   ticks,
		Engine:  engine,
		Metrics: prom,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[chartd] http listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[chartd] http server error: %v", err)
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Printf("[chartd] received %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	gw.Close()
	httpSrv.Shutdown(shutdownCtx)
	ticks.Stop()
	health.SetTickerRunning(false)
	cancel()
	metricsSrv.Stop(shutdownCtx)

	log.Println("[chartd] stopped")
}
