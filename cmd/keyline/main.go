// Keyline Core - Smart Lock Sync Engine
//
// This is the main entry point for Keyline Core, a host bridging
// cloud-connected smart locks and doorbell cameras onto a local HTTP and
// WebSocket API. It keeps a registry of device snapshots fresh through a
// combination of scheduled polling and a push channel, records the fleet's
// activity history, and exposes lock commands with confirmed and
// fire-and-forget flavours.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/keyline-core/migrations"

	"github.com/nerrad567/keyline-core/internal/activity"
	"github.com/nerrad567/keyline-core/internal/api"
	"github.com/nerrad567/keyline-core/internal/backend"
	"github.com/nerrad567/keyline-core/internal/device"
	"github.com/nerrad567/keyline-core/internal/discovery"
	"github.com/nerrad567/keyline-core/internal/fleet"
	"github.com/nerrad567/keyline-core/internal/infrastructure/config"
	"github.com/nerrad567/keyline-core/internal/infrastructure/database"
	"github.com/nerrad567/keyline-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/keyline-core/internal/infrastructure/logging"
	"github.com/nerrad567/keyline-core/internal/push"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// activityPruneInterval is how often expired activity log entries are swept.
const activityPruneInterval = 12 * time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Keyline Core",
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

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and bring the schema up to date
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Device registry and activity log
	registry := device.NewRegistry()
	registry.SetLogger(log)
	activityRepo := activity.NewSQLiteRepository(db.DB)

	// Cloud backend client
	backendClient := backend.New(cfg.Backend, log)

	// Push channel (optional; the engine polls without it)
	var pushChannel fleet.PushChannel
	pushClient, err := push.Connect(cfg.Push)
	if err != nil {
		log.Warn("push channel unavailable, relying on polling", "error", err)
	} else {
		pushClient.SetLogger(log)
		pushClient.SetOnConnect(func() {
			log.Info("push channel connected")
		})
		pushClient.SetOnDisconnect(func(err error) {
			log.Warn("push channel disconnected", "error", err)
		})
		defer func() {
			log.Info("closing push channel")
			if closeErr := pushClient.Close(); closeErr != nil {
				log.Error("error closing push channel", "error", closeErr)
			}
		}()
		pushChannel = pushClient
	}

	// BLE credential fan-out for companion integrations
	discoveryPub := discovery.NewPublisher()
	discoveryPub.AddListener(func(cred discovery.Credential) {
		log.Info("offline key discovered",
			"name", cred.Name,
			"address", cred.Address,
			"slot", cred.Slot,
		)
	})

	// InfluxDB telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
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
	} else {
		log.Info("InfluxDB disabled")
	}

	// Snapshot change fan-out. The API server is created after the
	// coordinator, so the closure resolves it at call time.
	var apiServer *api.Server
	onUpdate := func(deviceID string) {
		if apiServer != nil {
			apiServer.DeviceUpdated(deviceID)
		}
		if influxClient != nil {
			if detail, detailErr := registry.Detail(deviceID); detailErr == nil {
				influxClient.RecordDetail(detail)
			}
		}
	}

	coordinator := fleet.NewCoordinator(fleet.CoordinatorConfig{
		Backend:               backendClient,
		Push:                  pushChannel,
		Registry:              registry,
		Discovery:             discoveryPub,
		Recorder:              activityRepo,
		OnUpdate:              onUpdate,
		Brand:                 cfg.Backend.Brand,
		DetailRefreshInterval: time.Duration(cfg.Sync.DetailRefreshInterval) * time.Second,
		HouseRefreshDebounce:  time.Duration(cfg.Sync.HouseRefreshDebounce) * time.Second,
		Logger:                log,
	})
	defer coordinator.Stop()

	// HTTP and WebSocket API
	apiServer, err = api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Registry:   registry,
		Dispatcher: coordinator.Dispatcher(),
		Refresher:  coordinator.Refresher(),
		Activities: activityRepo,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Bring the fleet online, retrying while the cloud is unreachable
	retryInterval := time.Duration(cfg.Sync.SetupRetryInterval) * time.Second
	if err := setupWithRetry(ctx, coordinator, retryInterval, log); err != nil {
		return fmt.Errorf("fleet setup: %w", err)
	}

	// Sweep expired activity log entries in the background
	if cfg.Sync.ActivityRetentionDays > 0 {
		go pruneActivityLog(ctx, activityRepo, cfg.Sync.ActivityRetentionDays, log)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// setupWithRetry runs coordinator.Setup until it succeeds, the error is not
// retryable, or the context is cancelled.
//
// Authentication and validation failures are permanent: the operator has to
// fix credentials, so retrying only hammers the cloud. Connectivity failures
// resolve themselves, and the API keeps serving cached state in the meantime.
func setupWithRetry(ctx context.Context, coordinator *fleet.Coordinator, interval time.Duration, log *logging.Logger) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	for {
		err := coordinator.Setup(ctx)
		if err == nil {
			return nil
		}
		if !retryableSetupError(err) {
			return err
		}

		log.Warn("fleet setup failed, will retry",
			"error", err,
			"retry_in", interval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// retryableSetupError reports whether a setup failure is worth retrying.
func retryableSetupError(err error) bool {
	if errors.Is(err, backend.ErrAuthRequired) || errors.Is(err, backend.ErrValidationRequired) {
		return false
	}
	if errors.Is(err, fleet.ErrAlreadyStarted) || errors.Is(err, fleet.ErrNotStarted) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// pruneActivityLog deletes expired activity entries on a fixed cadence.
func pruneActivityLog(ctx context.Context, repo *activity.SQLiteRepository, retentionDays int, log *logging.Logger) {
	retention := time.Duration(retentionDays) * 24 * time.Hour

	ticker := time.NewTicker(activityPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.Prune(ctx, retention)
			if err != nil {
				log.Error("activity log prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("activity log pruned", "deleted", deleted)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses the KEYLINE_CONFIG environment variable if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("KEYLINE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
