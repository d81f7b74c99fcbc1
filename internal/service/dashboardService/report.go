package dashboardService

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/service"
	"github.com/KotFed0t/sector_dashboard/utils"
)

// GenerateSectorReport renders the sector's xlsx report and returns its
// bytes together with the file extension.
func (s *DashboardService) GenerateSectorReport(ctx context.Context, sector string) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.GenerateSectorReport"

	slog.Debug("GenerateSectorReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	defer func() {
		slog.Debug("GenerateSectorReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	}()

	if !s.universe.HasSector(sector) {
		return nil, "", service.ErrUnknownSector
	}

	ds := s.currentDataset()
	if ds == nil {
		return nil, "", service.ErrDatasetNotReady
	}

	records := ds.sectorRecords(sector)
	order, _ := s.universe.Tickers(sector)

	report := model.SectorReport{
		Sector:      sector,
		GeneratedAt: time.Now(),
		Stats:       computeSectorStats(sector, records),
		Tickers:     computeTickerStats(records, order, ds.betaByTicker),
	}

	fileBytes, fileExtension, err = s.reportGenerator.Generate(ctx, report)
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	return fileBytes, fileExtension, nil
}

// ShareSectorReport generates the report and uploads it to the cloud
// storage, returning a public download link.
func (s *DashboardService) ShareSectorReport(ctx context.Context, sector string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "DashboardService.ShareSectorReport"

	slog.Debug("ShareSectorReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	defer func() {
		slog.Debug("ShareSectorReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("sector", sector))
	}()

	if s.cloudStorage == nil {
		return "", service.ErrSharingDisabled
	}

	fileBytes, ext, err := s.GenerateSectorReport(ctx, sector)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf(
		"%s_report_%s%s",
		strings.ReplaceAll(sector, " ", "_"),
		time.Now().Format("20060102_150405"),
		ext,
	)

	link, err := s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return link, nil
}
