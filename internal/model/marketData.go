package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is one cleaned daily observation for a ticker: deduplicated,
// price and shares outstanding present, market cap derived.
type PriceRecord struct {
	Permno    int64
	Ticker    string
	Date      time.Time
	Price     decimal.Decimal
	SharesOut decimal.Decimal // CRSP shrout, thousands of shares
	Volume    *float64
	MarketCap decimal.Decimal
	Beta      *float64 // nil when the Yahoo lookup failed
}

// SnapshotRow is one raw downloaded row as persisted to the local snapshot
// file. Mirrors the WRDS query columns before cleaning; market cap and betas
// are derived again on every load.
type SnapshotRow struct {
	Permno    int64    `json:"permno" parquet:"permno"`
	Date      string   `json:"date" parquet:"date"` // YYYY-MM-DD
	Price     *float64 `json:"stock_price" parquet:"stock_price,optional"`
	SharesOut *float64 `json:"shrout" parquet:"shrout,optional"`
	Volume    *float64 `json:"volume" parquet:"volume,optional"`
	Ticker    string   `json:"ticker" parquet:"ticker"`
}
