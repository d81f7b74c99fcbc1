package dashboardService

import (
	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/universe"
)

// dataset is one immutable build of the cleaned records. A refresh installs
// a whole new value under the service lock, so readers never observe a
// partially built dataset.
type dataset struct {
	bySector     map[string][]model.PriceRecord
	betaByTicker map[string]float64
	meta         model.DatasetMeta
}

func newDataset(records []model.PriceRecord, betaByTicker map[string]float64, univ *universe.Universe, meta model.DatasetMeta) *dataset {
	sectorOf := make(map[string]string)
	for _, name := range univ.Sectors() {
		tickers, _ := univ.Tickers(name)
		for _, t := range tickers {
			if _, ok := sectorOf[t]; !ok {
				sectorOf[t] = name
			}
		}
	}

	bySector := make(map[string][]model.PriceRecord)
	for _, rec := range records {
		sector, ok := sectorOf[rec.Ticker]
		if !ok {
			// ticker left the catalog, stale snapshot row
			continue
		}
		bySector[sector] = append(bySector[sector], rec)
	}

	return &dataset{bySector: bySector, betaByTicker: betaByTicker, meta: meta}
}

func (d *dataset) sectorRecords(sector string) []model.PriceRecord {
	return d.bySector[sector]
}

// selectedBetas builds the beta table in selection order. A selected ticker
// without a known beta still gets a row, just with a nil beta.
func (d *dataset) selectedBetas(sector string, selected []string, univ *universe.Universe) []model.TickerBeta {
	if len(selected) == 0 {
		return nil
	}
	res := make([]model.TickerBeta, 0, len(selected))
	for _, ticker := range selected {
		if !univ.Contains(sector, ticker) {
			continue
		}
		tb := model.TickerBeta{Ticker: ticker}
		if beta, ok := d.betaByTicker[ticker]; ok {
			b := beta
			tb.Beta = &b
		}
		res = append(res, tb)
	}
	return res
}
