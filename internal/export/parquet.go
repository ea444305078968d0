package export

import (
	"chartengine/internal/model"

	"github.com/parquet-go/parquet-go"
)

// ParquetSaver writes bars as a Parquet file using the model's parquet tags.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(bars []model.Bar, path string) error {
	return parquet.WriteFile(path, bars)
}
