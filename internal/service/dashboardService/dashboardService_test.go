package dashboardService

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/data/snapshot"
	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/model/dbModel"
	"github.com/KotFed0t/sector_dashboard/internal/service"
	"github.com/KotFed0t/sector_dashboard/internal/universe"
)

type fakeRepo struct {
	prices    []dbModel.DailyPrice
	mapping   map[int64]string
	pricesErr error
	calls     int
}

func (f *fakeRepo) GetDailyPrices(ctx context.Context, tickers []string, startDate time.Time) ([]dbModel.DailyPrice, error) {
	f.calls++
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	return f.prices, nil
}

func (f *fakeRepo) GetTickerMapping(ctx context.Context, tickers []string) (map[int64]string, error) {
	return f.mapping, nil
}

type fakeCache struct {
	mu      sync.Mutex
	betas   map[string]float64
	stats   map[string]model.SectorStats
	flushed []string
}

func (f *fakeCache) GetBetas(ctx context.Context, tickers []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make(map[string]float64)
	for _, t := range tickers {
		if b, ok := f.betas[t]; ok {
			res[t] = b
		}
	}
	return res, nil
}

func (f *fakeCache) SetBetas(ctx context.Context, betas map[string]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.betas == nil {
		f.betas = make(map[string]float64)
	}
	for t, b := range betas {
		f.betas[t] = b
	}
	return nil
}

func (f *fakeCache) GetSectorStats(ctx context.Context, sector string) (model.SectorStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stats, ok := f.stats[sector]; ok {
		return stats, nil
	}
	return model.SectorStats{}, errors.New("cache miss")
}

func (f *fakeCache) SetSectorStats(ctx context.Context, stats model.SectorStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stats == nil {
		f.stats = make(map[string]model.SectorStats)
	}
	f.stats[stats.Sector] = stats
	return nil
}

func (f *fakeCache) FlushSectorStats(ctx context.Context, sectors []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed = append(f.flushed, sectors...)
	return nil
}

type fakeYahoo struct {
	betas map[string]float64
	calls int
}

func (f *fakeYahoo) GetBetas(ctx context.Context, tickers []string) (map[string]float64, error) {
	f.calls++
	res := make(map[string]float64)
	for _, t := range tickers {
		if b, ok := f.betas[t]; ok {
			res[t] = b
		}
	}
	return res, nil
}

type fakeStore struct {
	rows    []model.SnapshotRow
	loadErr error
	saved   []model.SnapshotRow
	savedTo string
}

func (f *fakeStore) Load(path string) ([]model.SnapshotRow, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.rows, nil
}

func (f *fakeStore) Save(rows []model.SnapshotRow, path string) error {
	f.saved = rows
	f.savedTo = path
	return nil
}

func (f *fakeStore) Extension() string { return "csv" }

type fakeReportGenerator struct {
	report model.SectorReport
	err    error
}

func (f *fakeReportGenerator) Generate(ctx context.Context, report model.SectorReport) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	f.report = report
	return []byte("xlsx-bytes"), ".xlsx", nil
}

type fakeCloudStorage struct {
	filename string
}

func (f *fakeCloudStorage) UploadFile(ctx context.Context, reader io.Reader, filename string) (string, error) {
	f.filename = filename
	return "https://drive.example/file/123", nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	metas []model.DatasetMeta
}

func (f *fakeNotifier) NotifyDatasetRefreshed(meta model.DatasetMeta) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metas = append(f.metas, meta)
}

func testUniverse(t *testing.T) *universe.Universe {
	t.Helper()
	u, err := universe.New([]universe.Sector{
		{Name: "Technology", Tickers: []string{"AAPL", "MSFT"}},
		{Name: "Energy", Tickers: []string{"XOM"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func testCfg() *config.Config {
	return &config.Config{
		Dataset: config.Dataset{File: "snap.csv", Format: "csv", StartDate: "2015-01-01"},
	}
}

func fptr(f float64) *float64 { return &f }

// three AAPL rows (one duplicate date, one null price), two MSFT, one XOM
func testRows() []model.SnapshotRow {
	return []model.SnapshotRow{
		{Permno: 1, Date: "2020-01-02", Price: fptr(10), SharesOut: fptr(100), Volume: fptr(500), Ticker: "AAPL"},
		{Permno: 1, Date: "2020-01-02", Price: fptr(99), SharesOut: fptr(999), Volume: nil, Ticker: "AAPL"},
		{Permno: 1, Date: "2020-01-03", Price: nil, SharesOut: fptr(100), Volume: fptr(600), Ticker: "AAPL"},
		{Permno: 1, Date: "2020-01-06", Price: fptr(20), SharesOut: fptr(100), Volume: fptr(700), Ticker: "AAPL"},
		{Permno: 2, Date: "2020-01-02", Price: fptr(30), SharesOut: fptr(200), Volume: fptr(800), Ticker: "MSFT"},
		{Permno: 2, Date: "2020-01-06", Price: fptr(50), SharesOut: fptr(200), Volume: nil, Ticker: "MSFT"},
		{Permno: 3, Date: "2020-01-02", Price: fptr(40), SharesOut: fptr(300), Volume: fptr(900), Ticker: "XOM"},
	}
}

func newTestService(t *testing.T, store *fakeStore, repo *fakeRepo, cache *fakeCache, yahoo *fakeYahoo) (*DashboardService, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	svc := New(testCfg(), repo, cache, yahoo, store, testUniverse(t), &fakeReportGenerator{}, nil, notifier)
	return svc, notifier
}

func TestEnsureDatasetFromSnapshot(t *testing.T) {
	store := &fakeStore{rows: testRows()}
	repo := &fakeRepo{}
	yahoo := &fakeYahoo{betas: map[string]float64{"AAPL": 1.2, "MSFT": 0.8, "XOM": 0.6}}
	svc, _ := newTestService(t, store, repo, &fakeCache{}, yahoo)

	if err := svc.EnsureDataset(context.Background()); err != nil {
		t.Fatalf("EnsureDataset: %v", err)
	}

	ready, meta := svc.DatasetStatus(context.Background())
	if !ready {
		t.Fatal("dataset not ready after EnsureDataset")
	}
	if meta.Source != model.DatasetSourceSnapshot {
		t.Errorf("source = %q, want snapshot", meta.Source)
	}
	// 7 raw rows: one duplicate dropped, one null price dropped
	if meta.Rows != 5 {
		t.Errorf("rows = %d, want 5", meta.Rows)
	}
	if meta.Tickers != 3 {
		t.Errorf("tickers = %d, want 3", meta.Tickers)
	}
	if got, want := meta.From.Format(time.DateOnly), "2020-01-02"; got != want {
		t.Errorf("from = %s, want %s", got, want)
	}
	if got, want := meta.To.Format(time.DateOnly), "2020-01-06"; got != want {
		t.Errorf("to = %s, want %s", got, want)
	}
	if repo.calls != 0 {
		t.Errorf("WRDS queried %d times despite snapshot", repo.calls)
	}
}

func TestEnsureDatasetDownloadsWhenSnapshotMissing(t *testing.T) {
	store := &fakeStore{loadErr: snapshot.ErrNotExists}
	repo := &fakeRepo{
		prices: []dbModel.DailyPrice{
			{
				Permno:    1,
				Date:      time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				Price:     decimal.NullDecimal{Decimal: decimal.NewFromInt(10), Valid: true},
				SharesOut: decimal.NullDecimal{Decimal: decimal.NewFromInt(100), Valid: true},
			},
		},
		mapping: map[int64]string{1: "AAPL"},
	}
	svc, _ := newTestService(t, store, repo, &fakeCache{}, &fakeYahoo{})

	if err := svc.EnsureDataset(context.Background()); err != nil {
		t.Fatalf("EnsureDataset: %v", err)
	}

	if repo.calls != 1 {
		t.Errorf("GetDailyPrices calls = %d, want 1", repo.calls)
	}
	if len(store.saved) != 1 {
		t.Fatalf("snapshot saved %d rows, want 1", len(store.saved))
	}
	if store.savedTo != "snap.csv" {
		t.Errorf("snapshot path = %q, want snap.csv", store.savedTo)
	}

	ready, meta := svc.DatasetStatus(context.Background())
	if !ready || meta.Source != model.DatasetSourceWRDS {
		t.Errorf("ready = %v, source = %q, want ready wrds dataset", ready, meta.Source)
	}
}

func TestEnsureDatasetCorruptSnapshot(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("parse error")}
	svc, _ := newTestService(t, store, &fakeRepo{}, &fakeCache{}, &fakeYahoo{})

	if err := svc.EnsureDataset(context.Background()); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
	if ready, _ := svc.DatasetStatus(context.Background()); ready {
		t.Error("dataset must stay not ready after failed build")
	}
}

func TestRefreshDataset(t *testing.T) {
	store := &fakeStore{rows: testRows()}
	repo := &fakeRepo{
		prices: []dbModel.DailyPrice{
			{
				Permno:    2,
				Date:      time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC),
				Price:     decimal.NullDecimal{Decimal: decimal.NewFromInt(60), Valid: true},
				SharesOut: decimal.NullDecimal{Decimal: decimal.NewFromInt(200), Valid: true},
			},
		},
		mapping: map[int64]string{2: "MSFT"},
	}
	cache := &fakeCache{}
	svc, notifier := newTestService(t, store, repo, cache, &fakeYahoo{})

	meta, err := svc.RefreshDataset(context.Background())
	if err != nil {
		t.Fatalf("RefreshDataset: %v", err)
	}

	if meta.Source != model.DatasetSourceWRDS {
		t.Errorf("source = %q, want wrds", meta.Source)
	}
	if meta.Rows != 1 || meta.Tickers != 1 {
		t.Errorf("meta = %+v, want 1 row 1 ticker", meta)
	}

	cache.mu.Lock()
	flushed := len(cache.flushed)
	cache.mu.Unlock()
	if flushed != 2 {
		t.Errorf("flushed %d sectors, want 2", flushed)
	}

	notifier.mu.Lock()
	notified := len(notifier.metas)
	notifier.mu.Unlock()
	if notified != 1 {
		t.Errorf("notifier called %d times, want 1", notified)
	}
}

func TestSectorSummary(t *testing.T) {
	store := &fakeStore{rows: testRows()}
	yahoo := &fakeYahoo{betas: map[string]float64{"AAPL": 1.2, "MSFT": 0.8}}
	svc, _ := newTestService(t, store, &fakeRepo{}, &fakeCache{}, yahoo)

	if err := svc.EnsureDataset(context.Background()); err != nil {
		t.Fatal(err)
	}

	t.Run("unknown sector", func(t *testing.T) {
		_, _, err := svc.SectorSummary(context.Background(), "Utilities", nil)
		if !errors.Is(err, service.ErrUnknownSector) {
			t.Fatalf("err = %v, want ErrUnknownSector", err)
		}
	})

	t.Run("averages", func(t *testing.T) {
		stats, betas, err := svc.SectorSummary(context.Background(), "Technology", nil)
		if err != nil {
			t.Fatalf("SectorSummary: %v", err)
		}
		if stats.Records != 4 {
			t.Errorf("records = %d, want 4", stats.Records)
		}
		// prices 10, 20, 30, 50 -> 27.5
		if !stats.AvgPrice.Valid || !stats.AvgPrice.Decimal.Equal(decimal.NewFromFloat(27.5)) {
			t.Errorf("avg price = %v, want 27.5", stats.AvgPrice)
		}
		// caps 1e6, 2e6, 6e6, 10e6 -> 4.75e6
		if !stats.AvgMarketCap.Valid || !stats.AvgMarketCap.Decimal.Equal(decimal.NewFromInt(4_750_000)) {
			t.Errorf("avg cap = %v, want 4750000", stats.AvgMarketCap)
		}
		// betas 1.2, 1.2, 0.8, 0.8 -> 1.0
		if stats.AvgBeta == nil || math.Abs(*stats.AvgBeta-1.0) > 1e-9 {
			t.Errorf("avg beta = %v, want 1.0", stats.AvgBeta)
		}
		if betas != nil {
			t.Errorf("betas = %v, want nil without selection", betas)
		}
	})

	t.Run("selected betas", func(t *testing.T) {
		_, betas, err := svc.SectorSummary(context.Background(), "Technology", []string{"MSFT", "AAPL", "XOM"})
		if err != nil {
			t.Fatal(err)
		}
		// XOM is not a Technology ticker, selection order preserved
		if len(betas) != 2 || betas[0].Ticker != "MSFT" || betas[1].Ticker != "AAPL" {
			t.Fatalf("betas = %+v", betas)
		}
		if betas[0].Beta == nil || *betas[0].Beta != 0.8 {
			t.Errorf("MSFT beta = %v, want 0.8", betas[0].Beta)
		}
	})

	t.Run("failed beta lookup stays nil", func(t *testing.T) {
		_, betas, err := svc.SectorSummary(context.Background(), "Energy", []string{"XOM"})
		if err != nil {
			t.Fatal(err)
		}
		if len(betas) != 1 || betas[0].Beta != nil {
			t.Errorf("betas = %+v, want XOM with nil beta", betas)
		}
	})

	t.Run("cache hit wins", func(t *testing.T) {
		cached := model.SectorStats{
			Sector:       "Technology",
			AvgPrice:     decimal.NullDecimal{Decimal: decimal.NewFromInt(42), Valid: true},
			AvgMarketCap: decimal.NullDecimal{Decimal: decimal.NewFromInt(42), Valid: true},
			Records:      42,
		}
		cache := &fakeCache{stats: map[string]model.SectorStats{"Technology": cached}}
		svc2, _ := newTestService(t, &fakeStore{rows: testRows()}, &fakeRepo{}, cache, &fakeYahoo{})
		if err := svc2.EnsureDataset(context.Background()); err != nil {
			t.Fatal(err)
		}

		stats, _, err := svc2.SectorSummary(context.Background(), "Technology", nil)
		if err != nil {
			t.Fatal(err)
		}
		if stats.Records != 42 {
			t.Errorf("records = %d, want cached 42", stats.Records)
		}
	})
}

func TestSectorSummaryNotReady(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{rows: testRows()}, &fakeRepo{}, &fakeCache{}, &fakeYahoo{})

	_, _, err := svc.SectorSummary(context.Background(), "Technology", nil)
	if !errors.Is(err, service.ErrDatasetNotReady) {
		t.Fatalf("err = %v, want ErrDatasetNotReady", err)
	}
}

func TestSectorTrend(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{rows: testRows()}, &fakeRepo{}, &fakeCache{}, &fakeYahoo{})
	if err := svc.EnsureDataset(context.Background()); err != nil {
		t.Fatal(err)
	}

	t.Run("empty selection", func(t *testing.T) {
		series, err := svc.SectorTrend(context.Background(), "Technology", nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(series) != 0 {
			t.Errorf("series = %+v, want none", series)
		}
	})

	t.Run("selection order and sorted dates", func(t *testing.T) {
		series, err := svc.SectorTrend(context.Background(), "Technology", []string{"MSFT", "AAPL"})
		if err != nil {
			t.Fatal(err)
		}
		if len(series) != 2 || series[0].Ticker != "MSFT" || series[1].Ticker != "AAPL" {
			t.Fatalf("series order = %+v", series)
		}
		aapl := series[1]
		if len(aapl.Points) != 2 {
			t.Fatalf("AAPL points = %d, want 2", len(aapl.Points))
		}
		if !aapl.Points[0].Date.Before(aapl.Points[1].Date) {
			t.Error("points not sorted by date")
		}
		if !aapl.Points[0].Price.Equal(decimal.NewFromInt(10)) {
			t.Errorf("first AAPL price = %v, want 10", aapl.Points[0].Price)
		}
	})

	t.Run("foreign ticker ignored", func(t *testing.T) {
		series, err := svc.SectorTrend(context.Background(), "Technology", []string{"XOM"})
		if err != nil {
			t.Fatal(err)
		}
		if len(series) != 0 {
			t.Errorf("series = %+v, want none", series)
		}
	})
}

func TestSectorComparison(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{rows: testRows()}, &fakeRepo{}, &fakeCache{}, &fakeYahoo{})
	if err := svc.EnsureDataset(context.Background()); err != nil {
		t.Fatal(err)
	}

	caps, err := svc.SectorComparison(context.Background(), "Technology", []string{"MSFT", "AAPL"})
	if err != nil {
		t.Fatalf("SectorComparison: %v", err)
	}

	// alphabetical regardless of selection order
	if len(caps) != 2 || caps[0].Ticker != "AAPL" || caps[1].Ticker != "MSFT" {
		t.Fatalf("caps = %+v", caps)
	}
	// AAPL caps 1e6 and 2e6 -> 1.5e6
	if !caps[0].AvgMarketCap.Equal(decimal.NewFromInt(1_500_000)) {
		t.Errorf("AAPL avg cap = %v, want 1500000", caps[0].AvgMarketCap)
	}
	// MSFT caps 6e6 and 10e6 -> 8e6
	if !caps[1].AvgMarketCap.Equal(decimal.NewFromInt(8_000_000)) {
		t.Errorf("MSFT avg cap = %v, want 8000000", caps[1].AvgMarketCap)
	}
}

func TestSectorsAndTickers(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{}, &fakeRepo{}, &fakeCache{}, &fakeYahoo{})

	sectors, def := svc.Sectors(context.Background())
	if len(sectors) != 2 || sectors[0] != "Technology" || def != "Technology" {
		t.Errorf("sectors = %v, default = %q", sectors, def)
	}

	tickers, err := svc.SectorTickers(context.Background(), "Energy")
	if err != nil || len(tickers) != 1 || tickers[0] != "XOM" {
		t.Errorf("tickers = %v, err = %v", tickers, err)
	}

	if _, err := svc.SectorTickers(context.Background(), "Nope"); !errors.Is(err, service.ErrUnknownSector) {
		t.Errorf("err = %v, want ErrUnknownSector", err)
	}
}

func TestGenerateSectorReport(t *testing.T) {
	gen := &fakeReportGenerator{}
	notifier := &fakeNotifier{}
	yahoo := &fakeYahoo{betas: map[string]float64{"AAPL": 1.2}}
	svc := New(testCfg(), &fakeRepo{}, &fakeCache{}, yahoo, &fakeStore{rows: testRows()}, testUniverse(t), gen, nil, notifier)

	if _, _, err := svc.GenerateSectorReport(context.Background(), "Technology"); !errors.Is(err, service.ErrDatasetNotReady) {
		t.Fatalf("err = %v, want ErrDatasetNotReady", err)
	}

	if err := svc.EnsureDataset(context.Background()); err != nil {
		t.Fatal(err)
	}

	fileBytes, ext, err := svc.GenerateSectorReport(context.Background(), "Technology")
	if err != nil {
		t.Fatalf("GenerateSectorReport: %v", err)
	}
	if ext != ".xlsx" || len(fileBytes) == 0 {
		t.Errorf("got ext %q, %d bytes", ext, len(fileBytes))
	}

	if gen.report.Sector != "Technology" {
		t.Errorf("report sector = %q", gen.report.Sector)
	}
	if gen.report.Stats.Records != 4 {
		t.Errorf("report records = %d, want 4", gen.report.Stats.Records)
	}
	// catalog order: AAPL then MSFT
	if len(gen.report.Tickers) != 2 || gen.report.Tickers[0].Ticker != "AAPL" {
		t.Fatalf("report tickers = %+v", gen.report.Tickers)
	}
	aapl := gen.report.Tickers[0]
	if got, want := aapl.LatestDate.Format(time.DateOnly), "2020-01-06"; got != want {
		t.Errorf("AAPL latest date = %s, want %s", got, want)
	}
	if !aapl.LatestPrice.Equal(decimal.NewFromInt(20)) {
		t.Errorf("AAPL latest price = %v, want 20", aapl.LatestPrice)
	}
	if !aapl.AvgPrice.Equal(decimal.NewFromInt(15)) {
		t.Errorf("AAPL avg price = %v, want 15", aapl.AvgPrice)
	}
}

func TestShareSectorReport(t *testing.T) {
	t.Run("sharing disabled", func(t *testing.T) {
		svc, _ := newTestService(t, &fakeStore{rows: testRows()}, &fakeRepo{}, &fakeCache{}, &fakeYahoo{})
		if err := svc.EnsureDataset(context.Background()); err != nil {
			t.Fatal(err)
		}
		_, err := svc.ShareSectorReport(context.Background(), "Technology")
		if !errors.Is(err, service.ErrSharingDisabled) {
			t.Fatalf("err = %v, want ErrSharingDisabled", err)
		}
	})

	t.Run("uploads and returns link", func(t *testing.T) {
		storage := &fakeCloudStorage{}
		svc := New(testCfg(), &fakeRepo{}, &fakeCache{}, &fakeYahoo{}, &fakeStore{rows: testRows()}, testUniverse(t), &fakeReportGenerator{}, storage, &fakeNotifier{})
		if err := svc.EnsureDataset(context.Background()); err != nil {
			t.Fatal(err)
		}

		link, err := svc.ShareSectorReport(context.Background(), "Technology")
		if err != nil {
			t.Fatalf("ShareSectorReport: %v", err)
		}
		if link != "https://drive.example/file/123" {
			t.Errorf("link = %q", link)
		}
		if !strings.HasPrefix(storage.filename, "Technology_report_") || !strings.HasSuffix(storage.filename, ".xlsx") {
			t.Errorf("filename = %q", storage.filename)
		}
	})
}

func TestCleanRecordsDedupeBeforeNullDrop(t *testing.T) {
	// the first (ticker, date) row wins even when it is later dropped for
	// a null price, the valid duplicate must not resurrect the observation
	rows := []model.SnapshotRow{
		{Permno: 1, Date: "2020-01-02", Price: nil, SharesOut: fptr(100), Ticker: "AAPL"},
		{Permno: 1, Date: "2020-01-02", Price: fptr(10), SharesOut: fptr(100), Ticker: "AAPL"},
	}
	records := cleanRecords(rows)
	if len(records) != 0 {
		t.Fatalf("records = %+v, want none", records)
	}
}

func TestCleanRecordsMarketCap(t *testing.T) {
	rows := []model.SnapshotRow{
		{Permno: 1, Date: "2020-01-02", Price: fptr(12.5), SharesOut: fptr(400), Ticker: "AAPL"},
	}
	records := cleanRecords(rows)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if !records[0].MarketCap.Equal(decimal.NewFromInt(5_000_000)) {
		t.Errorf("market cap = %v, want 5000000", records[0].MarketCap)
	}
}
