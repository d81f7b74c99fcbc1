package dashboardService

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/KotFed0t/sector_dashboard/internal/model"
)

// computeSectorStats averages over every record of the sector. The beta
// average skips records whose beta lookup failed.
func computeSectorStats(sector string, records []model.PriceRecord) model.SectorStats {
	stats := model.SectorStats{Sector: sector, Records: len(records)}
	if len(records) == 0 {
		return stats
	}

	var capSum, priceSum decimal.Decimal
	betaSum := 0.0
	betaN := 0
	for _, r := range records {
		capSum = capSum.Add(r.MarketCap)
		priceSum = priceSum.Add(r.Price)
		if r.Beta != nil {
			betaSum += *r.Beta
			betaN++
		}
	}

	n := decimal.NewFromInt(int64(len(records)))
	stats.AvgMarketCap = decimal.NullDecimal{Decimal: capSum.Div(n), Valid: true}
	stats.AvgPrice = decimal.NullDecimal{Decimal: priceSum.Div(n), Valid: true}
	if betaN > 0 {
		avg := betaSum / float64(betaN)
		stats.AvgBeta = &avg
	}
	return stats
}

// computeTrend builds one series per selected ticker in selection order,
// points sorted by date. Tickers without records produce no series.
func computeTrend(records []model.PriceRecord, selected []string) []model.TrendSeries {
	if len(selected) == 0 {
		return []model.TrendSeries{}
	}

	byTicker := make(map[string][]model.TrendPoint)
	for _, r := range records {
		byTicker[r.Ticker] = append(byTicker[r.Ticker], model.TrendPoint{Date: r.Date, Price: r.Price})
	}

	series := make([]model.TrendSeries, 0, len(selected))
	for _, ticker := range selected {
		points := byTicker[ticker]
		if len(points) == 0 {
			continue
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		series = append(series, model.TrendSeries{Ticker: ticker, Points: points})
	}
	return series
}

// computeComparison averages market cap per selected ticker, result sorted
// by ticker.
func computeComparison(records []model.PriceRecord, selected []string) []model.TickerCap {
	if len(selected) == 0 {
		return []model.TickerCap{}
	}

	want := make(map[string]bool, len(selected))
	for _, t := range selected {
		want[t] = true
	}

	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int64)
	for _, r := range records {
		if !want[r.Ticker] {
			continue
		}
		sums[r.Ticker] = sums[r.Ticker].Add(r.MarketCap)
		counts[r.Ticker]++
	}

	tickers := make([]string, 0, len(sums))
	for t := range sums {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	res := make([]model.TickerCap, 0, len(tickers))
	for _, t := range tickers {
		res = append(res, model.TickerCap{Ticker: t, AvgMarketCap: sums[t].Div(decimal.NewFromInt(counts[t]))})
	}
	return res
}

// computeTickerStats builds the per-ticker report rows in catalog order.
func computeTickerStats(records []model.PriceRecord, order []string, betas map[string]float64) []model.TickerStat {
	type agg struct {
		latest   model.PriceRecord
		priceSum decimal.Decimal
		capSum   decimal.Decimal
		n        int64
	}

	byTicker := make(map[string]*agg)
	for _, r := range records {
		a, ok := byTicker[r.Ticker]
		if !ok {
			a = &agg{latest: r}
			byTicker[r.Ticker] = a
		}
		if r.Date.After(a.latest.Date) {
			a.latest = r
		}
		a.priceSum = a.priceSum.Add(r.Price)
		a.capSum = a.capSum.Add(r.MarketCap)
		a.n++
	}

	res := make([]model.TickerStat, 0, len(order))
	for _, ticker := range order {
		a, ok := byTicker[ticker]
		if !ok {
			continue
		}
		n := decimal.NewFromInt(a.n)
		st := model.TickerStat{
			Ticker:       ticker,
			LatestDate:   a.latest.Date,
			LatestPrice:  a.latest.Price,
			AvgPrice:     a.priceSum.Div(n),
			AvgMarketCap: a.capSum.Div(n),
		}
		if beta, ok := betas[ticker]; ok {
			b := beta
			st.Beta = &b
		}
		res = append(res, st)
	}
	return res
}
