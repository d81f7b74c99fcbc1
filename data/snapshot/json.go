package snapshot

import (
	"encoding/json"
	"os"

	"github.com/KotFed0t/sector_dashboard/internal/model"
)

type JSONStore struct{}

func (JSONStore) Extension() string { return "json" }

func (JSONStore) Save(rows []model.SnapshotRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func (JSONStore) Load(path string) ([]model.SnapshotRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExists
		}
		return nil, err
	}
	defer f.Close()

	var rows []model.SnapshotRow
	if err := json.NewDecoder(f).Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
