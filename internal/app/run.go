package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kneckehexan/freecodecamp-heat-map/internal/chart"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/config"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/dataset"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/db"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/httpapi"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/metrics"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/migrate"
	heatmap "github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/repository"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/service"
	heatmapviews "github.com/kneckehexan/freecodecamp-heat-map/internal/modules/heatmap/views"
	"github.com/kneckehexan/freecodecamp-heat-map/internal/mqtt"
)

const (
	mqttConnectTimeout = 5 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// Run serves the heatmap until ctx is canceled or the listener fails. The
// dataset load starts before the listener so the first request usually finds
// it complete.
func Run(ctx context.Context, cfg config.Config, version string, logger *slog.Logger) error {
	logConfig(cfg, logger)

	dbConn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := heatmapviews.LoadTemplates(); err != nil {
		return err
	}

	m := metrics.New()

	var publisher *mqtt.Publisher
	if cfg.MQTTEnabled() {
		publisher, err = mqtt.NewPublisher(cfg, logger)
		if err != nil {
			return err
		}
		// A broker that is down must not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		defer publisher.Disconnect()
	}

	svc := service.New(service.Options{
		Loader:      dataset.NewHTTPLoader(cfg.DatasetURL, cfg.FetchTimeout, userAgent(version), logger),
		Repository:  repository.NewRepository(dbConn),
		Publisher:   eventPublisher(publisher),
		Observer:    m,
		WaitTimeout: cfg.LoadWaitTimeout,
		Logger:      logger,
	})
	svc.Start(ctx)

	mux := httpapi.NewMux(dbConn, svc.Status, m.Handler())
	heatmap.RegisterFeature(mux, svc, layoutFromConfig(cfg), logger)

	srv := httpapi.NewServer(cfg, mux, logger)
	return serve(ctx, srv, logger)
}

// Migrate applies pending schema migrations and exits.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	dbConn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return db.Close(dbConn)
}

func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("http shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	applied, err := migrate.Run(ctx, dbConn, logger)
	if err != nil {
		_ = db.Close(dbConn)
		return nil, err
	}
	logger.Info("database ready", "driver", cfg.SQLiteDriver, "migrationsApplied", len(applied))
	return dbConn, nil
}

func logConfig(cfg config.Config, logger *slog.Logger) {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"datasetURL", cfg.DatasetURL,
		"fetchTimeout", cfg.FetchTimeout,
		"loadWaitTimeout", cfg.LoadWaitTimeout,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogSQL", cfg.SQLiteLogSQL,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"chartWidth", cfg.ChartWidth,
		"chartHeight", cfg.ChartHeight,
		"chartPadding", cfg.ChartPadding,
	)
}

func layoutFromConfig(cfg config.Config) chart.Layout {
	return chart.Layout{Width: cfg.ChartWidth, Height: cfg.ChartHeight, Padding: cfg.ChartPadding}
}

func userAgent(version string) string {
	return "heatmap/" + version
}

// eventPublisher keeps a nil *mqtt.Publisher from becoming a non-nil
// interface.
func eventPublisher(p *mqtt.Publisher) service.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
