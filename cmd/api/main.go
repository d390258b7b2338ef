package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/afi-report/backend/internal/api"
	"github.com/afi-report/backend/internal/api/handlers"
	"github.com/afi-report/backend/internal/cache/redis"
	"github.com/afi-report/backend/internal/chart"
	"github.com/afi-report/backend/internal/dataset"
	"github.com/afi-report/backend/internal/metrics"
	"github.com/afi-report/backend/internal/middleware/ratelimit"
	"github.com/afi-report/backend/internal/reconcile"
	"github.com/afi-report/backend/internal/report"
	"github.com/afi-report/backend/internal/storage/sqlite"
	"github.com/afi-report/backend/pkg/config"
	appLogger "github.com/afi-report/backend/pkg/logger"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AFI report server")
	metrics.Init()

	fs := afero.NewOsFs()

	var loaderOpts []reconcile.Option
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, mapping cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			loaderOpts = append(loaderOpts, reconcile.WithMappingCache(redisClient))
		}
	}

	loader := reconcile.NewLoader(fs, reconcile.Config{
		PrimaryPath: cfg.Data.PrimaryPath,
		Patterns:    cfg.Data.AuxiliaryPatterns,
		FileCap:     cfg.Data.AuxiliaryFileCap,
		Sentinel:    cfg.Data.Sentinel,
		CacheTTL:    time.Duration(cfg.Redis.TTLSec) * time.Second,
	}, loaderOpts...)
	store := reconcile.NewStore(loader)

	ctx := context.Background()
	result, err := store.GetOrLoad(ctx)
	if err != nil {
		if errors.Is(err, reconcile.ErrPrimaryMissing) {
			fmt.Fprintf(os.Stderr, "Data Error: '%s' not found.\n", cfg.Data.PrimaryPath)
			appLogger.Fatal("Data Error: primary table not found", zap.String("path", cfg.Data.PrimaryPath))
		}
		appLogger.Fatal("Failed to load scored table", zap.Error(err))
	}

	var districtStore handlers.DistrictStore
	if cfg.SQLite.Enabled {
		sqliteClient, err := openMirror(ctx, cfg.SQLite.Path, result)
		if err != nil {
			appLogger.Warn("District mirror disabled", zap.Error(err))
		} else {
			defer sqliteClient.Close()
			districtStore = sqliteClient
		}
	}

	composer, err := report.NewComposer(
		result.Table,
		report.NewArtifactStore(fs, cfg.Artifacts.Dir),
		report.DefaultNavigation(),
		report.Options{
			Scatter: chart.ScatterSpec{
				ID:            "strategic-matrix",
				Title:         "Strategic Matrix: Volume vs Friction",
				X:             cfg.Chart.XColumn,
				Y:             cfg.Chart.YColumn,
				Color:         cfg.Chart.ColorColumn,
				Size:          cfg.Chart.SizeColumn,
				Label:         "district",
				Hover:         cfg.Chart.HoverColumns,
				CriticalZoneY: cfg.Chart.CriticalZoneY,
				Height:        cfg.Chart.Height,
			},
			ScoreColumn:   cfg.Chart.YColumn,
			RankingTop:    cfg.Report.RankingTop,
			DefaultHeight: cfg.Artifacts.DefaultHeight,
		},
	)
	if err != nil {
		appLogger.Fatal("Failed to create report composer", zap.Error(err))
	}

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Security.MaxRequestsPerMinute,
		Logger:               appLogger.Named("ratelimit"),
	})
	defer limiter.Stop()

	app := api.NewApp(cfg, api.Deps{
		Report:    handlers.NewReportHandler(composer, cfg.Report.Title),
		WebSocket: handlers.NewWebSocketHandler(composer),
		Dataset:   handlers.NewDatasetHandler(result.Table, result.Report, districtStore),
		Health:    handlers.NewHealthHandler(store),
		Limiter:   limiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Shutdown did not complete", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("AFI_REPORT_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// openMirror copies the reconciled districts into sqlite and records the
// load in its history.
func openMirror(ctx context.Context, path string, result *reconcile.Result) (*sqlite.Client, error) {
	client, err := sqlite.NewClient(path)
	if err != nil {
		return nil, err
	}

	if err := client.InitSchema(); err != nil {
		client.Close()
		return nil, err
	}

	districts, err := dataset.Districts(result.Table)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("bind districts: %w", err)
	}
	if err := client.ReplaceDistricts(ctx, districts); err != nil {
		client.Close()
		return nil, err
	}
	if err := client.RecordLoad(ctx, result.Report); err != nil {
		appLogger.Warn("Failed to record load history", zap.Error(err))
	}
	return client, nil
}
