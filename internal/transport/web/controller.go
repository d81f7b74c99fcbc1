package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/KotFed0t/sector_dashboard/internal/converter/webConverter"
	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/internal/model/webModel"
	"github.com/KotFed0t/sector_dashboard/internal/service"
	"github.com/KotFed0t/sector_dashboard/pkg/jsonresponse"
	"github.com/KotFed0t/sector_dashboard/utils"
)

type DashboardService interface {
	Sectors(ctx context.Context) (sectors []string, defaultSector string)
	SectorTickers(ctx context.Context, sector string) ([]string, error)
	SectorSummary(ctx context.Context, sector string, selected []string) (model.SectorStats, []model.TickerBeta, error)
	SectorTrend(ctx context.Context, sector string, selected []string) ([]model.TrendSeries, error)
	SectorComparison(ctx context.Context, sector string, selected []string) ([]model.TickerCap, error)
	DatasetStatus(ctx context.Context) (ready bool, meta model.DatasetMeta)
	RefreshDataset(ctx context.Context) (model.DatasetMeta, error)
	GenerateSectorReport(ctx context.Context, sector string) (fileBytes []byte, fileExtension string, err error)
	ShareSectorReport(ctx context.Context, sector string) (string, error)
}

type Controller struct {
	dashboardService DashboardService
	refreshRunning   atomic.Bool
}

func NewController(dashboardService DashboardService) *Controller {
	return &Controller{dashboardService: dashboardService}
}

func (ctrl *Controller) GetSectors(w http.ResponseWriter, r *http.Request) {
	sectors, defaultSector := ctrl.dashboardService.Sectors(r.Context())
	jsonresponse.WriteResponse(w, http.StatusOK, webModel.SectorsResponse{
		Sectors:       sectors,
		DefaultSector: defaultSector,
	})
}

func (ctrl *Controller) GetSectorTickers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector := r.PathValue("sector")

	tickers, err := ctrl.dashboardService.SectorTickers(ctx, sector)
	if err != nil {
		ctrl.writeServiceError(ctx, w, err)
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, webModel.TickersResponse{Sector: sector, Tickers: tickers})
}

func (ctrl *Controller) GetSectorSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector := r.PathValue("sector")

	stats, betas, err := ctrl.dashboardService.SectorSummary(ctx, sector, parseTickers(r))
	if err != nil {
		ctrl.writeServiceError(ctx, w, err)
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, webConverter.ConvertSummary(stats, betas))
}

func (ctrl *Controller) GetSectorTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector := r.PathValue("sector")

	series, err := ctrl.dashboardService.SectorTrend(ctx, sector, parseTickers(r))
	if err != nil {
		ctrl.writeServiceError(ctx, w, err)
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, webConverter.ConvertTrend(sector, series))
}

func (ctrl *Controller) GetSectorComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector := r.PathValue("sector")

	caps, err := ctrl.dashboardService.SectorComparison(ctx, sector, parseTickers(r))
	if err != nil {
		ctrl.writeServiceError(ctx, w, err)
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, webConverter.ConvertComparison(sector, caps))
}

func (ctrl *Controller) GetDataset(w http.ResponseWriter, r *http.Request) {
	ready, meta := ctrl.dashboardService.DatasetStatus(r.Context())
	jsonresponse.WriteResponse(w, http.StatusOK, webConverter.ConvertDatasetMeta(ready, meta))
}

// RefreshDataset kicks off a rebuild in the background and returns right away:
// downloading from WRDS takes minutes, no browser should wait on it. Clients
// learn about completion over the websocket.
func (ctrl *Controller) RefreshDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !ctrl.refreshRunning.CompareAndSwap(false, true) {
		jsonresponse.WriteError(ctx, w, jsonresponse.WrapError(nil, "refresh is already running", http.StatusConflict))
		return
	}

	go func(ctx context.Context) {
		defer ctrl.refreshRunning.Store(false)
		rqID := utils.GetRequestIDFromCtx(ctx)
		if _, err := ctrl.dashboardService.RefreshDataset(ctx); err != nil {
			slog.Error("got error from dashboardService.RefreshDataset", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
	}(context.WithoutCancel(ctx))

	jsonresponse.WriteResponse(w, http.StatusAccepted, webModel.RefreshResponse{Status: "started"})
}

func (ctrl *Controller) GetSectorReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector := r.PathValue("sector")

	fileBytes, fileExtension, err := ctrl.dashboardService.GenerateSectorReport(ctx, sector)
	if err != nil {
		ctrl.writeServiceError(ctx, w, err)
		return
	}

	filename := strings.ReplaceAll(sector, " ", "_") + "_report" + fileExtension
	w.Header().Set("Content-Type", contentTypeForExtension(fileExtension))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(fileBytes); err != nil {
		slog.Error("got error writing report response", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
	}
}

func (ctrl *Controller) ShareSectorReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector := r.PathValue("sector")

	link, err := ctrl.dashboardService.ShareSectorReport(ctx, sector)
	if err != nil {
		ctrl.writeServiceError(ctx, w, err)
		return
	}

	jsonresponse.WriteResponse(w, http.StatusOK, webModel.ShareResponse{Link: link})
}

func (ctrl *Controller) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownSector):
		jsonresponse.WriteError(ctx, w, jsonresponse.WrapError(err, "unknown sector", http.StatusNotFound))
	case errors.Is(err, service.ErrDatasetNotReady):
		jsonresponse.WriteError(ctx, w, jsonresponse.WrapError(err, "dataset is not ready yet", http.StatusServiceUnavailable))
	case errors.Is(err, service.ErrSharingDisabled):
		jsonresponse.WriteError(ctx, w, jsonresponse.WrapError(err, "report sharing is disabled", http.StatusForbidden))
	default:
		jsonresponse.WriteError(ctx, w, jsonresponse.WrapError(err, "internal server error", http.StatusInternalServerError))
	}
}

// parseTickers reads the tickers query param, accepting both repeated params
// and a single comma-separated value. Empty result means no selection.
func parseTickers(r *http.Request) []string {
	var tickers []string
	for _, raw := range r.URL.Query()["tickers"] {
		for _, t := range strings.Split(raw, ",") {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t != "" {
				tickers = append(tickers, t)
			}
		}
	}
	return tickers
}

func contentTypeForExtension(ext string) string {
	switch ext {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
