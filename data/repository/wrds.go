package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/internal/model/dbModel"
	"github.com/KotFed0t/sector_dashboard/utils"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"
)

// WRDS reads CRSP tables from the vendor postgres. The database is read-only
// for subscribers, so there is no transaction machinery here.
type WRDS struct {
	db  *sqlx.DB
	cfg *config.Config
}

func NewWRDS(cfg *config.Config, db *sqlx.DB) *WRDS {
	return &WRDS{db: db, cfg: cfg}
}

// GetDailyPrices selects daily observations from crsp.dsf for every permno
// that carried one of the tickers, starting at startDate. NULL prc/shrout
// rows are returned as-is; cleaning happens later.
func (r *WRDS) GetDailyPrices(ctx context.Context, tickers []string, startDate time.Time) (rows []dbModel.DailyPrice, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT permno, date, prc AS stock_price, shrout, vol AS volume
		FROM crsp.dsf
		WHERE permno IN (
			SELECT permno
			FROM crsp.msenames
			WHERE ticker IN (?)
		)
		AND date >= ?
		ORDER BY date, permno
		`

	slog.Debug("GetDailyPrices start", slog.String("rqID", rqID), slog.Int("tickers", len(tickers)))
	defer func() {
		if err != nil {
			slog.Error("GetDailyPrices failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetDailyPrices completed", slog.String("rqID", rqID), slog.Int("rows", len(rows)))
		}
	}()

	query, args, err := sqlx.In(query, tickers, startDate)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	return rows, nil
}

// GetTickerMapping selects the permno -> ticker map from crsp.msenames.
// msenames keeps one row per name spell, so a permno can repeat; the last
// row wins, matching how the dataset was originally assembled.
func (r *WRDS) GetTickerMapping(ctx context.Context, tickers []string) (mapping map[int64]string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT permno, ticker
		FROM crsp.msenames
		WHERE ticker IN (?)
		`

	slog.Debug("GetTickerMapping start", slog.String("rqID", rqID), slog.Int("tickers", len(tickers)))
	defer func() {
		if err != nil {
			slog.Error("GetTickerMapping failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTickerMapping completed", slog.String("rqID", rqID), slog.Int("permnos", len(mapping)))
		}
	}()

	query, args, err := sqlx.In(query, tickers)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var names []dbModel.TickerName
	err = r.db.SelectContext(ctx, &names, query, args...)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, ErrNotFound
	}

	mapping = make(map[int64]string, len(names))
	for _, n := range names {
		mapping[n.Permno] = n.Ticker
	}

	return mapping, nil
}
