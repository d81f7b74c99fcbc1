package dashboardService

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/model/dbModel"
	"github.com/KotFed0t/sector_dashboard/internal/service"
	"github.com/KotFed0t/sector_dashboard/internal/universe"
	"github.com/KotFed0t/sector_dashboard/utils"
)

type Repository interface {
	GetDailyPrices(ctx context.Context, tickers []string, startDate time.Time) ([]dbModel.DailyPrice, error)
	GetTickerMapping(ctx context.Context, tickers []string) (map[int64]string, error)
}

type Cache interface {
	GetBetas(ctx context.Context, tickers []string) (map[string]float64, error)
	SetBetas(ctx context.Context, betas map[string]float64) error
	GetSectorStats(ctx context.Context, sector string) (model.SectorStats, error)
	SetSectorStats(ctx context.Context, stats model.SectorStats) error
	FlushSectorStats(ctx context.Context, sectors []string) error
}

type YahooApi interface {
	GetBetas(ctx context.Context, tickers []string) (map[string]float64, error)
}

type SnapshotStore interface {
	Save(rows []model.SnapshotRow, path string) error
	Load(path string) ([]model.SnapshotRow, error)
	Extension() string
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.SectorReport) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type RefreshNotifier interface {
	NotifyDatasetRefreshed(meta model.DatasetMeta)
}

type DashboardService struct {
	cfg             *config.Config
	repo            Repository
	cache           Cache
	yahooApi        YahooApi
	snapshotStore   SnapshotStore
	universe        *universe.Universe
	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
	notifier        RefreshNotifier

	mu sync.RWMutex
	ds *dataset
}

// New builds the service. cloudStorage may be nil: report sharing is then
// reported as disabled. notifier may be nil when nobody listens for refreshes.
func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	yahooApi YahooApi,
	snapshotStore SnapshotStore,
	univ *universe.Universe,
	reportGenerator ReportGenerator,
	cloudStorage CloudStorage,
	notifier RefreshNotifier,
) *DashboardService {
	return &DashboardService{
		cfg:             cfg,
		repo:            repo,
		cache:           cache,
		yahooApi:        yahooApi,
		snapshotStore:   snapshotStore,
		universe:        univ,
		reportGenerator: reportGenerator,
		cloudStorage:    cloudStorage,
		notifier:        notifier,
	}
}

func (s *DashboardService) Sectors(ctx context.Context) (sectors []string, defaultSector string) {
	sectors = s.universe.Sectors()
	return sectors, s.universe.DefaultSector()
}

func (s *DashboardService) SectorTickers(ctx context.Context, sector string) ([]string, error) {
	tickers, ok := s.universe.Tickers(sector)
	if !ok {
		return nil, service.ErrUnknownSector
	}
	return tickers, nil
}

func (s *DashboardService) DatasetStatus(ctx context.Context) (ready bool, meta model.DatasetMeta) {
	ds := s.currentDataset()
	if ds == nil {
		return false, model.DatasetMeta{}
	}
	return true, ds.meta
}

// SectorSummary returns the sector-wide averages plus, when tickers are
// selected, their individual betas for the beta table. Selected tickers
// outside the sector are ignored.
func (s *DashboardService) SectorSummary(ctx context.Context, sector string, selected []string) (model.SectorStats, []model.TickerBeta, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.SectorSummary"

	slog.Debug("SectorSummary start", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	defer func() {
		slog.Debug("SectorSummary finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	}()

	if !s.universe.HasSector(sector) {
		return model.SectorStats{}, nil, service.ErrUnknownSector
	}

	ds := s.currentDataset()
	if ds == nil {
		return model.SectorStats{}, nil, service.ErrDatasetNotReady
	}

	stats, err := s.cache.GetSectorStats(ctx, sector)
	if err != nil {
		slog.Warn("can't get sector stats from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))

		stats = computeSectorStats(sector, ds.sectorRecords(sector))

		go s.cache.SetSectorStats(context.WithoutCancel(ctx), stats)
	}

	return stats, ds.selectedBetas(sector, selected, s.universe), nil
}

// SectorTrend returns one price series per selected ticker, dates ascending.
// An empty selection means an empty chart, not an error.
func (s *DashboardService) SectorTrend(ctx context.Context, sector string, selected []string) ([]model.TrendSeries, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.SectorTrend"

	slog.Debug("SectorTrend start", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	defer func() {
		slog.Debug("SectorTrend finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	}()

	if !s.universe.HasSector(sector) {
		return nil, service.ErrUnknownSector
	}

	ds := s.currentDataset()
	if ds == nil {
		return nil, service.ErrDatasetNotReady
	}

	return computeTrend(ds.sectorRecords(sector), s.filterSelected(sector, selected)), nil
}

// SectorComparison returns the average market cap per selected ticker,
// tickers sorted alphabetically.
func (s *DashboardService) SectorComparison(ctx context.Context, sector string, selected []string) ([]model.TickerCap, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.SectorComparison"

	slog.Debug("SectorComparison start", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	defer func() {
		slog.Debug("SectorComparison finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	}()

	if !s.universe.HasSector(sector) {
		return nil, service.ErrUnknownSector
	}

	ds := s.currentDataset()
	if ds == nil {
		return nil, service.ErrDatasetNotReady
	}

	return computeComparison(ds.sectorRecords(sector), s.filterSelected(sector, selected)), nil
}

// filterSelected keeps the selected tickers that belong to the sector,
// preserving selection order.
func (s *DashboardService) filterSelected(sector string, selected []string) []string {
	res := make([]string, 0, len(selected))
	for _, ticker := range selected {
		if s.universe.Contains(sector, ticker) {
			res = append(res, ticker)
		}
	}
	return res
}

func (s *DashboardService) currentDataset() *dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

func (s *DashboardService) installDataset(ds *dataset) {
	s.mu.Lock()
	s.ds = ds
	s.mu.Unlock()
}
