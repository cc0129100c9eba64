// Gray Logic Panels - button panel bridge
//
// panelbridge connects wall-mounted button panels to the Gray Logic
// automation graph over MQTT. Gestures from the panels are run through the
// click state machine and written to bound devices and variables; device
// changes are mirrored back onto buttons, labels and display lines.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-panels/internal/api"
	"github.com/nerrad567/gray-logic-panels/internal/auth"
	"github.com/nerrad567/gray-logic-panels/internal/automation"
	"github.com/nerrad567/gray-logic-panels/internal/binding"
	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/dispatch"
	"github.com/nerrad567/gray-logic-panels/internal/eventloop"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-panels/internal/panel"
	"github.com/nerrad567/gray-logic-panels/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Panels",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS, migrations.Dir); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	bindingRepo := binding.NewSQLiteRepository(db.DB)
	if seedErr := seedBindings(ctx, cfg.Panels.BindingsFile, bindingRepo, log); seedErr != nil {
		return seedErr
	}
	resolver := binding.NewResolver(bindingRepo)
	resolver.SetLogger(log.Component("binding"))

	registry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	registry.SetLogger(log.Component("device"))
	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", registry.GetDeviceCount())

	pool, err := mqtt.ConnectPool(cfg.MQTT, log.Component("mqtt"))
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := pool.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected", "brokers", pool.BrokerIDs(), "default", cfg.MQTT.DefaultBroker)

	if cfg.Panels.StateSync {
		stateSync := device.NewStateSync(registry, pool, "")
		stateSync.SetLogger(log.Component("statesync"))
		if syncErr := stateSync.Start(ctx); syncErr != nil {
			return fmt.Errorf("starting state sync: %w", syncErr)
		}
		registry.SetCommandSink(stateSync)
		log.Info("device state sync started")
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	loop := eventloop.New()
	loop.SetLogger(log.Component("eventloop"))

	dispatcher := dispatch.New(ctx, registry, loop)
	dispatcher.SetLogger(log.Component("dispatch"))
	defer dispatcher.Close()

	triggers := automation.NewPublisher(pool, "")
	triggers.SetLogger(log.Component("automation"))

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.API.WebSocket, log.Component("websocket"))
		triggers.AddSink(hub)
		dispatcher.AddObserver(hub)
	}

	panels, err := buildPanels(cfg, panel.Deps{
		Graph:     registry,
		Resolver:  resolver,
		Bus:       pool,
		Triggers:  triggers,
		Loop:      loop,
		Telemetry: telemetry(influxClient),
		Logger:    log.Component("panel"),
	})
	if err != nil {
		return err
	}
	panels.SetLogger(log.Component("panel"))

	// The loop is not running yet, so wiring happens on this goroutine.
	if wireErr := panels.Wire(ctx, dispatcher); wireErr != nil {
		log.Warn("some panel bindings were not wired", "error", wireErr)
	}
	if startErr := panels.Start(ctx); startErr != nil {
		return fmt.Errorf("starting panels: %w", startErr)
	}
	loop.Post(func() { panels.ResyncAll(ctx) })
	log.Info("panels started", "panels", panels.Count(), "watched_pairs", dispatcher.Count())

	scheduler, err := startResync(ctx, cfg.Panels.ResyncSchedule, loop, panels, log)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer scheduler.Stop()
	}

	if cfg.API.Enabled {
		authenticator, authErr := auth.NewAuthenticator(cfg.API.Auth)
		if authErr != nil {
			return fmt.Errorf("configuring API auth: %w", authErr)
		}
		if authenticator == nil {
			log.Warn("API authentication disabled, set api.auth.jwt_secret to enable it")
		}
		srv, srvErr := api.New(api.Deps{
			Config:     cfg.API,
			Logger:     log.Component("api"),
			Registry:   registry,
			Panels:     panels,
			Resolver:   resolver,
			Bindings:   bindingRepo,
			Dispatcher: dispatcher,
			Loop:       loop,
			Brokers:    pool,
			DB:         db,
			Auth:       authenticator,
			Hub:        hub,
			Version:    version,
		})
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, db, pool, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if hub != nil {
		g.Go(func() error {
			return hub.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("event loop: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("Gray Logic Panels stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PANELS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PANELS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// seedBindings upserts the configuration tables from path, if set.
func seedBindings(ctx context.Context, path string, repo binding.Repository, log *logging.Logger) error {
	if path == "" {
		return nil
	}
	tables, err := binding.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("loading bindings file: %w", err)
	}
	if err := binding.Seed(ctx, repo, tables); err != nil {
		return fmt.Errorf("seeding bindings: %w", err)
	}
	log.Info("bindings seeded",
		"path", path,
		"buttons", len(tables.Buttons),
		"displays", len(tables.Displays),
	)
	return nil
}

// buildPanels creates a controller for every configured panel.
func buildPanels(cfg *config.Config, deps panel.Deps) (*panel.Manager, error) {
	m := panel.NewManager()
	for _, pc := range cfg.Panels.Devices {
		opts := panel.OptionsFromConfig(pc, cfg.Panels)
		c, err := panel.New(opts, deps)
		if err != nil {
			return nil, fmt.Errorf("creating panel %q: %w", pc.Name, err)
		}
		if err := m.Add(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// telemetry avoids handing panels a typed nil when InfluxDB is disabled.
func telemetry(c *influxdb.Client) panel.Telemetry {
	if c == nil {
		return nil
	}
	return c
}

// startResync schedules a periodic resync of every panel. An empty schedule
// disables it and returns a nil scheduler.
func startResync(ctx context.Context, schedule string, loop *eventloop.Loop, panels *panel.Manager, log *logging.Logger) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		loop.Post(func() {
			log.Debug("periodic panel resync")
			panels.ResyncAll(ctx)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("parsing resync schedule %q: %w", schedule, err)
	}
	c.Start()
	log.Info("panel resync scheduled", "schedule", schedule)
	return c, nil
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, db *database.DB, pool *mqtt.Pool, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := pool.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
