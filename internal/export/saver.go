// Package export writes bar series to files for offline analysis.
package export

import (
	"strings"

	"chartengine/internal/model"
)

// Saver writes one bar series to a file.
type Saver interface {
	Save(bars []model.Bar, path string) error
	Extension() string
}

// Formats lists the supported export formats.
var Formats = []string{"csv", "json", "parquet"}

// NewSaver returns the Saver for format (csv, json, parquet), or nil when the
// format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// FileName builds "{symbol}_{tf}.{ext}" for a series.
func FileName(s Saver, symbol, timeframe string) string {
	return symbol + "_" + timeframe + "." + s.Extension()
}
