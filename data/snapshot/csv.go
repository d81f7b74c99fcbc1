package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/KotFed0t/sector_dashboard/internal/model"
)

// CSVStore writes the same layout the dataset was originally distributed in:
// header permno,date,stock_price,shrout,volume,ticker, empty cells for NULLs.
type CSVStore struct{}

func (CSVStore) Extension() string { return "csv" }

var csvHeader = []string{"permno", "date", "stock_price", "shrout", "volume", "ticker"}

func (CSVStore) Save(rows []model.SnapshotRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			strconv.FormatInt(r.Permno, 10),
			r.Date,
			floatStr(r.Price),
			floatStr(r.SharesOut),
			floatStr(r.Volume),
			r.Ticker,
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

func (CSVStore) Load(path string) ([]model.SnapshotRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExists
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv snapshot %s has no header", path)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, name := range csvHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("csv snapshot %s misses column %q", path, name)
		}
	}

	rows := make([]model.SnapshotRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		permno, err := strconv.ParseInt(rec[col["permno"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv snapshot %s: bad permno %q: %w", path, rec[col["permno"]], err)
		}

		price, err := parseFloat(rec[col["stock_price"]])
		if err != nil {
			return nil, fmt.Errorf("csv snapshot %s: bad stock_price: %w", path, err)
		}
		shrout, err := parseFloat(rec[col["shrout"]])
		if err != nil {
			return nil, fmt.Errorf("csv snapshot %s: bad shrout: %w", path, err)
		}
		volume, err := parseFloat(rec[col["volume"]])
		if err != nil {
			return nil, fmt.Errorf("csv snapshot %s: bad volume: %w", path, err)
		}

		rows = append(rows, model.SnapshotRow{
			Permno:    permno,
			Date:      rec[col["date"]],
			Price:     price,
			SharesOut: shrout,
			Volume:    volume,
			Ticker:    rec[col["ticker"]],
		})
	}
	return rows, nil
}

func floatStr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
