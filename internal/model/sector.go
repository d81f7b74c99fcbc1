package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SectorStats are the averages shown in the dashboard header, computed over
// every record of the sector (not only the selected tickers).
type SectorStats struct {
	Sector       string
	AvgMarketCap decimal.NullDecimal
	AvgPrice     decimal.NullDecimal
	AvgBeta      *float64
	Records      int
}

type TickerBeta struct {
	Ticker string
	Beta   *float64
}

type TrendPoint struct {
	Date  time.Time
	Price decimal.Decimal
}

// TrendSeries is one line on the price trend chart.
type TrendSeries struct {
	Ticker string
	Points []TrendPoint
}

// TickerCap is one bar on the market cap comparison chart.
type TickerCap struct {
	Ticker       string
	AvgMarketCap decimal.Decimal
}

// TickerStat is one row of the xlsx sector report.
type TickerStat struct {
	Ticker       string
	LatestDate   time.Time
	LatestPrice  decimal.Decimal
	AvgPrice     decimal.Decimal
	AvgMarketCap decimal.Decimal
	Beta         *float64
}

type SectorReport struct {
	Sector      string
	GeneratedAt time.Time
	Stats       SectorStats
	Tickers     []TickerStat
}
