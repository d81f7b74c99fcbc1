package snapshot

import (
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/KotFed0t/sector_dashboard/internal/model"
)

type ParquetStore struct{}

func (ParquetStore) Extension() string { return "parquet" }

func (ParquetStore) Save(rows []model.SnapshotRow, path string) error {
	return parquet.WriteFile(path, rows)
}

func (ParquetStore) Load(path string) ([]model.SnapshotRow, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExists
		}
		return nil, err
	}
	return parquet.ReadFile[model.SnapshotRow](path)
}
