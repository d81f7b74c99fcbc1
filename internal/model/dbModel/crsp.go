package dbModel

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// DailyPrice is one crsp.dsf row. prc and shrout can be NULL on non-trading
// observations; those rows are filtered out during the cleaning stage, not in
// the query.
type DailyPrice struct {
	Permno    int64               `db:"permno"`
	Date      time.Time           `db:"date"`
	Price     decimal.NullDecimal `db:"stock_price"`
	SharesOut decimal.NullDecimal `db:"shrout"`
	Volume    sql.NullFloat64     `db:"volume"`
}

// TickerName is one crsp.msenames row of the permno->ticker mapping.
type TickerName struct {
	Permno int64  `db:"permno"`
	Ticker string `db:"ticker"`
}
