package webConverter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/model/webModel"
)

func ConvertSummary(stats model.SectorStats, betas []model.TickerBeta) webModel.SummaryResponse {
	res := webModel.SummaryResponse{
		Sector:  stats.Sector,
		Records: stats.Records,
		Averages: webModel.Averages{
			MarketCap: nullDecimalToFloatPtr(stats.AvgMarketCap),
			Price:     nullDecimalToFloatPtr(stats.AvgPrice),
			Beta:      stats.AvgBeta,
		},
	}
	for _, b := range betas {
		res.Betas = append(res.Betas, webModel.TickerBeta{Ticker: b.Ticker, Beta: b.Beta})
	}
	return res
}

func ConvertTrend(sector string, series []model.TrendSeries) webModel.TrendResponse {
	res := webModel.TrendResponse{Sector: sector, Series: make([]webModel.TrendSeries, 0, len(series))}
	for _, s := range series {
		ws := webModel.TrendSeries{
			Ticker: s.Ticker,
			Dates:  make([]string, 0, len(s.Points)),
			Prices: make([]float64, 0, len(s.Points)),
		}
		for _, p := range s.Points {
			ws.Dates = append(ws.Dates, p.Date.Format(time.DateOnly))
			ws.Prices = append(ws.Prices, p.Price.InexactFloat64())
		}
		res.Series = append(res.Series, ws)
	}
	return res
}

func ConvertComparison(sector string, caps []model.TickerCap) webModel.ComparisonResponse {
	res := webModel.ComparisonResponse{
		Sector:     sector,
		Tickers:    make([]string, 0, len(caps)),
		MarketCaps: make([]float64, 0, len(caps)),
	}
	for _, c := range caps {
		res.Tickers = append(res.Tickers, c.Ticker)
		res.MarketCaps = append(res.MarketCaps, c.AvgMarketCap.InexactFloat64())
	}
	return res
}

func ConvertDatasetMeta(ready bool, meta model.DatasetMeta) webModel.DatasetResponse {
	res := webModel.DatasetResponse{
		Ready:   ready,
		Rows:    meta.Rows,
		Tickers: meta.Tickers,
		Source:  meta.Source,
	}
	if !meta.From.IsZero() {
		res.From = meta.From.Format(time.DateOnly)
	}
	if !meta.To.IsZero() {
		res.To = meta.To.Format(time.DateOnly)
	}
	if !meta.BuiltAt.IsZero() {
		res.BuiltAt = meta.BuiltAt.Format(time.RFC3339)
	}
	return res
}

func nullDecimalToFloatPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
