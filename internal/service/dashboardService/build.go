package dashboardService

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KotFed0t/sector_dashboard/data/snapshot"
	"github.com/KotFed0t/sector_dashboard/internal/converter/dbConverter"
	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/utils"
)

// EnsureDataset makes the in-memory dataset available: an existing snapshot
// file is loaded, otherwise the data is downloaded from WRDS and snapshotted.
// Betas are resolved again on every build, the snapshot never stores them.
func (s *DashboardService) EnsureDataset(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.EnsureDataset"

	slog.Debug("EnsureDataset start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("EnsureDataset finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	path := s.snapshotPath()
	rows, err := s.snapshotStore.Load(path)
	switch {
	case err == nil:
		slog.Info("snapshot loaded", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", path), slog.Int("rows", len(rows)))
		s.buildAndInstall(ctx, rows, model.DatasetSourceSnapshot)
		return nil
	case errors.Is(err, snapshot.ErrNotExists):
		slog.Info("snapshot not found, downloading from WRDS", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", path))

		rows, err = s.downloadSnapshot(ctx)
		if err != nil {
			return err
		}
		s.buildAndInstall(ctx, rows, model.DatasetSourceWRDS)
		return nil
	default:
		slog.Error("can't load snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", path), slog.String("err", err.Error()))
		return err
	}
}

// RefreshDataset forces a fresh WRDS download, rewrites the snapshot,
// swaps the in-memory dataset and flushes cached sector stats.
func (s *DashboardService) RefreshDataset(ctx context.Context) (model.DatasetMeta, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.RefreshDataset"

	slog.Debug("RefreshDataset start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshDataset finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	rows, err := s.downloadSnapshot(ctx)
	if err != nil {
		return model.DatasetMeta{}, err
	}

	s.buildAndInstall(ctx, rows, model.DatasetSourceWRDS)

	// flushed synchronously, the next summary read must not see stale averages
	err = s.cache.FlushSectorStats(ctx, s.universe.Sectors())
	if err != nil {
		slog.Error("got error from cache.FlushSectorStats", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	_, meta := s.DatasetStatus(ctx)

	if s.notifier != nil {
		s.notifier.NotifyDatasetRefreshed(meta)
	}

	return meta, nil
}

func (s *DashboardService) downloadSnapshot(ctx context.Context) ([]model.SnapshotRow, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.downloadSnapshot"

	tickers := s.universe.AllTickers()

	startDate, err := time.Parse(time.DateOnly, s.cfg.Dataset.StartDate)
	if err != nil {
		slog.Error("invalid dataset start date", slog.String("rqID", rqID), slog.String("op", op), slog.String("startDate", s.cfg.Dataset.StartDate))
		return nil, err
	}

	prices, err := s.repo.GetDailyPrices(ctx, tickers, startDate)
	if err != nil {
		slog.Error("got error from repo.GetDailyPrices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	mapping, err := s.repo.GetTickerMapping(ctx, tickers)
	if err != nil {
		slog.Error("got error from repo.GetTickerMapping", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	rows := dbConverter.ConvertDailyPrices(prices, mapping)

	path := s.snapshotPath()
	err = s.snapshotStore.Save(rows, path)
	if err != nil {
		// the in-memory dataset still works without the file
		slog.Error("can't save snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", path), slog.String("err", err.Error()))
	} else {
		slog.Info("snapshot saved", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", path), slog.Int("rows", len(rows)))
	}

	return rows, nil
}

func (s *DashboardService) buildAndInstall(ctx context.Context, rows []model.SnapshotRow, source string) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.buildAndInstall"

	records := cleanRecords(rows)
	betas := s.resolveBetas(ctx, records)

	for i := range records {
		if beta, ok := betas[records[i].Ticker]; ok {
			b := beta
			records[i].Beta = &b
		}
	}

	meta := buildMeta(records, source, s.snapshotPath(), time.Now())
	s.installDataset(newDataset(records, betas, s.universe, meta))

	slog.Info(
		"dataset installed",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("rows", meta.Rows),
		slog.Int("tickers", meta.Tickers),
		slog.String("source", source),
	)
}

// cleanRecords applies the cleaning the dashboard relies on: duplicate
// (ticker, date) observations keep the first row, rows with a missing price
// or shares outstanding are dropped, market cap is derived (shrout is in
// thousands of shares, hence the 1000 factor).
func cleanRecords(rows []model.SnapshotRow) []model.PriceRecord {
	thousand := decimal.NewFromInt(1000)

	seen := make(map[dedupeKey]bool, len(rows))
	records := make([]model.PriceRecord, 0, len(rows))
	for _, row := range rows {
		key := dedupeKey{ticker: row.Ticker, date: row.Date}
		if seen[key] {
			continue
		}
		seen[key] = true

		if row.Price == nil || row.SharesOut == nil || row.Ticker == "" {
			continue
		}
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			continue
		}

		price := decimal.NewFromFloat(*row.Price)
		shrout := decimal.NewFromFloat(*row.SharesOut)
		records = append(records, model.PriceRecord{
			Permno:    row.Permno,
			Ticker:    row.Ticker,
			Date:      date,
			Price:     price,
			SharesOut: shrout,
			Volume:    row.Volume,
			MarketCap: price.Mul(shrout).Mul(thousand),
		})
	}
	return records
}

type dedupeKey struct {
	ticker string
	date   string
}

// resolveBetas returns ticker -> beta for the dataset's tickers, redis cache
// first, Yahoo for the misses. Lookups that fail leave no entry; the build
// proceeds with whatever was resolved.
func (s *DashboardService) resolveBetas(ctx context.Context, records []model.PriceRecord) map[string]float64 {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.resolveBetas"

	tickers := distinctTickers(records)
	if len(tickers) == 0 {
		return map[string]float64{}
	}

	betas, err := s.cache.GetBetas(ctx, tickers)
	if err != nil {
		slog.Warn("can't get betas from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		betas = make(map[string]float64, len(tickers))
	}

	missing := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := betas[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return betas
	}

	fetched, err := s.yahooApi.GetBetas(ctx, missing)
	if err != nil {
		slog.Error("can't get betas from yahooApi", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return betas
	}

	if len(fetched) > 0 {
		go s.cache.SetBetas(context.WithoutCancel(ctx), fetched)
	}

	for t, b := range fetched {
		betas[t] = b
	}
	return betas
}

func distinctTickers(records []model.PriceRecord) []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, r := range records {
		if !seen[r.Ticker] {
			seen[r.Ticker] = true
			tickers = append(tickers, r.Ticker)
		}
	}
	return tickers
}

func buildMeta(records []model.PriceRecord, source, snapshotPath string, builtAt time.Time) model.DatasetMeta {
	meta := model.DatasetMeta{
		Rows:     len(records),
		Source:   source,
		BuiltAt:  builtAt,
		Snapshot: snapshotPath,
	}

	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Ticker] {
			seen[r.Ticker] = true
			meta.Tickers++
		}
		if meta.From.IsZero() || r.Date.Before(meta.From) {
			meta.From = r.Date
		}
		if r.Date.After(meta.To) {
			meta.To = r.Date
		}
	}
	return meta
}

// snapshotPath returns the configured snapshot file, deriving the extension
// from the store format when the config leaves it off.
func (s *DashboardService) snapshotPath() string {
	path := s.cfg.Dataset.File
	if filepath.Ext(path) == "" {
		path += "." + s.snapshotStore.Extension()
	}
	return path
}
