// cmd/chartctl exports a bar series to a file and prints indicator readings.
//
// Usage:
//
//	go run ./cmd/chartctl -symbol AAPL -tf 1D -format parquet -out ./exports
//	go run ./cmd/chartctl -symbol BTC-USD -tf 1h -db ./data/bars.db -indicators SMA:20,RSI:14
//	go run ./cmd/chartctl -real -search tesla
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chartengine/config"
	"chartengine/internal/export"
	"chartengine/internal/indicator"
	"chartengine/internal/model"
	"chartengine/internal/quote"
	sqlitestore "chartengine/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[chartctl] %v", err)
	}

	symbol := flag.String("symbol", "AAPL", "symbol to export")
	tf := flag.String("tf", "1D", "timeframe label (1m 5m 15m 1h 4h 1D 1W)")
	format := flag.String("format", "csv", "export format: "+strings.Join(export.Formats, ", "))
	outDir := flag.String("out", ".", "output directory")
	dbPath := flag.String("db", cfg.SQLitePath, "SQLite archive to read from and save into (optional)")
	useReal := flag.Bool("real", cfg.QuoteEnabled, "fetch real data from the quote provider")
	indicators := flag.String("indicators", cfg.Indicators, "indicators to print, e.g. SMA:20,EMA:9,RSI:14")
	search := flag.String("search", "", "search symbols instead of exporting")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var opts []quote.SourceOption
	if *useReal {
		opts = append(opts, quote.WithProvider(quote.NewYahoo(quote.YahooConfig{
			BaseURL: cfg.QuoteBaseURL,
			Proxy:   cfg.QuoteProxy,
			Timeout: cfg.QuoteTimeout,
		})))
	}

	var archive *sqlitestore.Store
	if *dbPath != "" {
		archive, err = sqlitestore.Open(*dbPath)
		if err != nil {
			log.Fatalf("[chartctl] %v", err)
		}
		defer archive.Close()
		opts = append(opts, quote.WithArchive(archive))
	}
	source := quote.NewSource(opts...)

	if *search != "" {
		for _, r := range source.Search(ctx, *search) {
			fmt.Printf("%-12s %-10s %-8s %s\n", r.Symbol, r.Type, r.Exchange, r.Name)
		}
		return
	}

	saver := export.NewSaver(*format)
	if saver == nil {
		log.Fatalf("[chartctl] unknown format %q (want one of %s)", *format, strings.Join(export.Formats, ", "))
	}
	if _, ok := model.Timeframe(*tf); !ok {
		log.Fatalf("[chartctl] unknown timeframe %q", *tf)
	}

	series := loadSeries(ctx, source, archive, *symbol, *tf)
	if len(series.Bars) == 0 {
		log.Fatalf("[chartctl] no bars for %s %s", *symbol, *tf)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("[chartctl] %v", err)
	}
	path := filepath.Join(*outDir, export.FileName(saver, *symbol, *tf))
	if err := saver.Save(series.Bars, path); err != nil {
		log.Fatalf("[chartctl] save: %v", err)
	}
	log.Printf("[chartctl] wrote %d %s bars (%s) to %s", len(series.Bars), *tf, series.Origin, path)

	printIndicators(*symbol, series.Bars, indicator.ParseSpecs(*indicators))
}

// loadSeries reads the archive first when no provider is configured, so
// repeated exports are stable. Freshly generated series are archived.
func loadSeries(ctx context.Context, source *quote.Source, archive *sqlitestore.Store, symbol, tf string) quote.Series {
	if archive != nil && !source.RealData() {
		bars, err := archive.LoadBars(ctx, symbol, tf, 0)
		if err != nil {
			log.Printf("[chartctl] archive: %v", err)
		} else if len(bars) > 0 {
			return quote.Series{Symbol: symbol, Timeframe: tf, Origin: quote.OriginArchive, Bars: bars}
		}
	}

	series := source.Bars(ctx, symbol, tf)
	if archive != nil && series.Origin == quote.OriginSynthetic && len(series.Bars) > 0 {
		if err := archive.SaveBars(ctx, symbol, tf, series.Bars); err != nil {
			log.Printf("[chartctl] archive save: %v", err)
		}
	}
	return series
}

func printIndicators(symbol string, bars []model.Bar, specs []indicator.Spec) {
	last, _ := model.Last(bars)
	fmt.Printf("%s close %.4f at %s\n", symbol, last.Close, time.Unix(last.Time, 0).UTC().Format(time.RFC3339))

	engine := indicator.NewEngine(specs)
	var results []model.IndicatorResult
	for _, b := range bars {
		results = engine.Process(symbol, b)
	}
	for _, r := range results {
		if !r.Ready {
			fmt.Printf("  %-10s not ready\n", r.Name)
			continue
		}
		fmt.Printf("  %-10s %.4f\n", r.Name, r.Value)
	}

	bands := indicator.DefaultBollinger(bars)
	if n := len(bands.Middle); n > 0 {
		fmt.Printf("  %-10s %.4f / %.4f / %.4f\n", "BB_20", bands.Upper[n-1].Value, bands.Middle[n-1].Value, bands.Lower[n-1].Value)
	}
	macd := indicator.DefaultMACD(bars)
	if n := len(macd.Histogram); n > 0 {
		fmt.Printf("  %-10s %.4f signal %.4f hist %.4f\n", "MACD",
			macd.MACDLine[len(macd.MACDLine)-1].Value, macd.SignalLine[len(macd.SignalLine)-1].Value, macd.Histogram[n-1].Value)
	}
}
