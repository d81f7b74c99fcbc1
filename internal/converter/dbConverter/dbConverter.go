package dbConverter

import (
	"time"

	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/model/dbModel"
)

func ConvertDailyPrice(row dbModel.DailyPrice, ticker string) model.SnapshotRow {
	snap := model.SnapshotRow{
		Permno: row.Permno,
		Date:   row.Date.Format(time.DateOnly),
		Ticker: ticker,
	}
	if row.Price.Valid {
		f := row.Price.Decimal.InexactFloat64()
		snap.Price = &f
	}
	if row.SharesOut.Valid {
		f := row.SharesOut.Decimal.InexactFloat64()
		snap.SharesOut = &f
	}
	if row.Volume.Valid {
		f := row.Volume.Float64
		snap.Volume = &f
	}
	return snap
}

func ConvertDailyPrices(rows []dbModel.DailyPrice, tickerByPermno map[int64]string) []model.SnapshotRow {
	res := make([]model.SnapshotRow, 0, len(rows))
	for _, row := range rows {
		res = append(res, ConvertDailyPrice(row, tickerByPermno[row.Permno]))
	}
	return res
}
