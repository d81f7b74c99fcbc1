// Package snapshot persists the raw WRDS download between runs so the
// dashboard can boot without vendor access. One file, format from config.
package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KotFed0t/sector_dashboard/internal/model"
)

// ErrNotExists reports a missing snapshot file; the service treats it as
// "download needed", not as a failure.
var ErrNotExists = errors.New("snapshot file does not exist")

type Store interface {
	Save(rows []model.SnapshotRow, path string) error
	Load(path string) ([]model.SnapshotRow, error)
	Extension() string
}

// NewStore creates the implementation for a format (csv, json, parquet).
func NewStore(format string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVStore{}, nil
	case "json":
		return JSONStore{}, nil
	case "parquet":
		return ParquetStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}
