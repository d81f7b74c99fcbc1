package webserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/internal/transport/web"
	customMW "github.com/KotFed0t/sector_dashboard/internal/transport/web/middleware"
)

type Server struct {
	cfg    *config.Config
	server *http.Server
}

func New(cfg *config.Config, ctrl *web.Controller, hub *web.Hub) *Server {
	mux := http.NewServeMux()
	addRoutes(mux, ctrl, hub)

	var handler http.Handler = mux
	handler = customMW.Recover(handler)
	handler = customMW.Logger(handler)
	handler = customMW.RequestID(handler)

	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

func addRoutes(mux *http.ServeMux, ctrl *web.Controller, hub *web.Hub) {
	mux.HandleFunc("GET /{$}", web.Index)

	mux.HandleFunc("GET /api/sectors", ctrl.GetSectors)
	mux.HandleFunc("GET /api/sectors/{sector}/tickers", ctrl.GetSectorTickers)
	mux.HandleFunc("GET /api/sectors/{sector}/summary", ctrl.GetSectorSummary)
	mux.HandleFunc("GET /api/sectors/{sector}/trend", ctrl.GetSectorTrend)
	mux.HandleFunc("GET /api/sectors/{sector}/comparison", ctrl.GetSectorComparison)
	mux.HandleFunc("GET /api/sectors/{sector}/report", ctrl.GetSectorReport)
	mux.HandleFunc("POST /api/sectors/{sector}/report/share", ctrl.ShareSectorReport)

	mux.HandleFunc("GET /api/dataset", ctrl.GetDataset)
	mux.HandleFunc("POST /api/dataset/refresh", ctrl.RefreshDataset)

	mux.HandleFunc("GET /ws", hub.HandleWS)
}

func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("got error from server.ListenAndServe", slog.String("err", err.Error()))
			panic(err)
		}
	}()
	slog.Info("web server started!", slog.String("addr", s.server.Addr))
}

func (s *Server) Stop() {
	slog.Info("start stopping web server")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("got error from server.Shutdown", slog.String("err", err.Error()))
	}
	slog.Info("web server stopped")
}
