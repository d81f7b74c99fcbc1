package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/data"
	"github.com/KotFed0t/sector_dashboard/data/cache"
	"github.com/KotFed0t/sector_dashboard/data/repository"
	"github.com/KotFed0t/sector_dashboard/data/snapshot"
	"github.com/KotFed0t/sector_dashboard/internal/auth"
	"github.com/KotFed0t/sector_dashboard/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/sector_dashboard/internal/externalApi/yahooApi"
	"github.com/KotFed0t/sector_dashboard/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/sector_dashboard/internal/scheduler"
	"github.com/KotFed0t/sector_dashboard/internal/service/dashboardService"
	"github.com/KotFed0t/sector_dashboard/internal/transport/web"
	"github.com/KotFed0t/sector_dashboard/internal/universe"
	"github.com/KotFed0t/sector_dashboard/internal/webserver"
	"github.com/KotFed0t/sector_dashboard/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds, err := auth.Resolve(cfg.WRDS.Host, cfg.WRDS.Port, cfg.WRDS.DbName, cfg.WRDS.User, cfg.WRDS.Password)
	if err != nil {
		slog.Error("WRDS credentials are not available", slog.String("err", err.Error()))
		panic(err)
	}
	cfg.WRDS.User = creds.User
	cfg.WRDS.Password = creds.Password

	wrdsClient := data.NewWRDSClient(cfg)
	defer wrdsClient.Close()

	wrdsRepo := repository.NewWRDS(cfg, wrdsClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	yahooApiClient := yahooApi.New(cfg)

	snapshotStore, err := snapshot.NewStore(cfg.Dataset.Format)
	if err != nil {
		slog.Error("unsupported snapshot format", slog.String("format", cfg.Dataset.Format), slog.String("err", err.Error()))
		panic(err)
	}

	univ := universe.Default()
	if cfg.Dataset.UniverseFile != "" {
		univ, err = universe.LoadFile(cfg.Dataset.UniverseFile)
		if err != nil {
			slog.Error("got error loading universe file", slog.String("file", cfg.Dataset.UniverseFile), slog.String("err", err.Error()))
			panic(err)
		}
	}

	reportGenerator := xslsxGenerator.New()

	var driveApi *googleDriveApi.GoogleDriveApi
	var cloudStorage dashboardService.CloudStorage
	if cfg.GoogleDrive.CredentialsFile != "" {
		driveApi = googleDriveApi.New(ctx, cfg)
		cloudStorage = driveApi
	}

	hub := web.NewHub()
	defer hub.Close()

	dashboardSrv := dashboardService.New(cfg, wrdsRepo, redisCache, yahooApiClient, snapshotStore, univ, reportGenerator, cloudStorage, hub)

	if err := dashboardSrv.EnsureDataset(utils.CreateCtxWithRqID(ctx)); err != nil {
		slog.Error("dataset is not available yet, serving without it", slog.String("err", err.Error()))
	}

	sched := scheduler.New()
	if cfg.Jobs.DatasetRefreshCrontab != "" {
		sched.NewCrontabJob("dataset refresh", func(ctx context.Context) error {
			_, err := dashboardSrv.RefreshDataset(ctx)
			return err
		}, cfg.Jobs.DatasetRefreshCrontab, false)
	}
	if driveApi != nil && cfg.GoogleDrive.CleanupCrontab != "" {
		sched.NewCrontabJob("drive cleanup", driveApi.DeleteOldFiles, cfg.GoogleDrive.CleanupCrontab, false)
	}
	sched.Start()
	defer sched.Stop()

	webController := web.NewController(dashboardSrv)

	server := webserver.New(cfg, webController, hub)
	server.Start()
	defer server.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
