// Command sovdsim runs the SOVD vehicle diagnostics simulator.
//
// It serves the diagnostic REST API and WebSocket event stream, keeps an
// audit trail in SQLite, and optionally mirrors events to MQTT and vehicle
// state to InfluxDB.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/sovd-sim/internal/api"
	"github.com/nerrad567/sovd-sim/internal/audit"
	"github.com/nerrad567/sovd-sim/internal/engine"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/config"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/database"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/influxdb"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/logging"
	"github.com/nerrad567/sovd-sim/internal/infrastructure/mqtt"
	"github.com/nerrad567/sovd-sim/internal/metrics"
	"github.com/nerrad567/sovd-sim/internal/telemetry"
	"github.com/nerrad567/sovd-sim/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when neither --config nor SOVDSIM_CONFIG is set.
	defaultConfigPath = "configs/config.yaml"

	configEnv = "SOVDSIM_CONFIG"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(ctx).Execute(); err != nil {
		cancel()
		os.Exit(1)
	}
}

// newRootCommand builds the sovdsim command tree. The root command serves
// the simulator until ctx is cancelled.
func newRootCommand(ctx context.Context) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "sovdsim",
		Short:        "SOVD vehicle diagnostics simulator",
		Long:         "sovdsim simulates a vehicle behind a SOVD-style diagnostic API: live data, faults, locks, operations and modes.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, optional := resolveConfigPath(configPath)
			return run(ctx, path, optional)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("path to the YAML config file (env %s, default %s)", configEnv, defaultConfigPath))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	})

	return root
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "sovdsim %s (commit %s, built %s)\n", version, commit, date)
}

// resolveConfigPath picks the config file: the flag, then SOVDSIM_CONFIG,
// then the default. Only the default path may be missing.
func resolveConfigPath(flag string) (string, bool) {
	if flag != "" {
		return flag, false
	}
	if path := os.Getenv(configEnv); path != "" {
		return path, false
	}
	return defaultConfigPath, true
}

// run is the actual application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context, configPath string, optional bool) error {
	log := logging.Default()
	log.Info("starting sovdsim",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath, optional)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Audit journal
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	auditRepo := audit.NewSQLiteRepository(db.DB)
	journal := audit.NewJournal(auditRepo, 0)
	journal.SetLogger(log.Component("audit"))

	// Simulation
	eng, err := engine.New(engine.Options{
		Info: engine.Info{
			Name:        cfg.Vehicle.Name,
			Version:     cfg.Vehicle.Version,
			Description: cfg.Vehicle.Description,
			VIN:         cfg.Vehicle.VIN,
		},
		Seed:               cfg.Simulation.Seed,
		OperationSteps:     cfg.Simulation.OperationSteps,
		OperationStepDelay: cfg.Simulation.OperationStepDelay,
		BlinkInterval:      cfg.Simulation.BlinkInterval,
		BlinkToggles:       cfg.Simulation.BlinkToggles,
		FaultProbability:   cfg.Simulation.FaultProbability,
		MaxLockTTL:         cfg.GetMaxLockTTL(),
		Logger:             log.Component("engine"),
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer eng.Close()

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	eng.Subscribe(hub)
	eng.Subscribe(journal)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		eng.Subscribe(collector)
	}

	// Optional telemetry sinks
	var (
		mqttClient *mqtt.Client
		publisher  *telemetry.MQTTPublisher
	)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT, cfg.Vehicle.ID)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"topics", mqttClient.Topics().Base(),
		)

		publisher = telemetry.NewMQTTPublisher(mqttClient, mqttClient.Topics(), 0)
		publisher.SetLogger(log.Component("mqtt"))
		eng.Subscribe(publisher)
	} else {
		log.Info("MQTT disabled")
	}

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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		eng.Subscribe(telemetry.NewInfluxRecorder(influxClient, cfg.Vehicle.ID, nil))
	} else {
		log.Info("InfluxDB disabled")
	}

	deps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Metrics:   cfg.Metrics,
		Logger:    log.Component("api"),
		Engine:    eng,
		Hub:       hub,
		Audit:     auditRepo,
		Collector: collector,
		DB:        db,
		Version:   version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// The event sinks outlive the HTTP server so mutations from requests
	// drained during shutdown still reach the audit log and MQTT.
	sinkCtx, stopSinks := context.WithCancel(context.Background())
	defer stopSinks()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return journal.Run(sinkCtx)
	})
	if publisher != nil {
		g.Go(func() error {
			return publisher.Run(sinkCtx)
		})
	}

	if err := server.Start(gctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	g.Go(func() error {
		return awaitShutdown(gctx, server.Close, eng.Close, stopSinks)
	})

	log.Info("simulator running",
		"vehicle", cfg.Vehicle.Name,
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("sovdsim stopped")
	return nil
}

// awaitShutdown blocks until ctx is done. The event sinks are stopped only
// after the HTTP server has drained and the simulation has stopped.
func awaitShutdown(ctx context.Context, closeServer func() error, closeEngine, stopSinks func()) error {
	<-ctx.Done()
	defer stopSinks()
	err := closeServer()
	closeEngine()
	return err
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
