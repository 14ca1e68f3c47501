package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sextet-lights/internal/api"
	"github.com/nerrad567/sextet-lights/internal/audit"
	"github.com/nerrad567/sextet-lights/internal/bridge"
	"github.com/nerrad567/sextet-lights/internal/bridges/esphome"
	"github.com/nerrad567/sextet-lights/internal/controller"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/config"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/database"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/influxdb"
	"github.com/nerrad567/sextet-lights/internal/infrastructure/logging"
	"github.com/nerrad567/sextet-lights/migrations"
)

var runInput string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream the cabinet lights to the configured controllers",
	Long: `Connects to every configured controller, switches the main light off and
follows the sextet stream until it ends, forwarding every light change. When
the stream ends the main light is switched off again. On interrupt the lights
are left as they are.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		if runInput != "" {
			cfg.Input.Path = runInput
		}

		log := logging.New(cfg.Logging, Version)
		log.Info("starting sextetlights",
			"version", Version,
			"commit", Commit,
			"config", path)

		return runBridge(cmd.Context(), cfg, log)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "",
		`sextet stream path, "-" for stdin (overrides input.path)`)
	rootCmd.AddCommand(runCmd)
}

// newControllerClient builds the transport of one controller. Replaced in
// tests.
var newControllerClient = func(cfg config.ControllerConfig, log *logging.Logger) controller.Client {
	return esphome.New(cfg, log.Component("esphome").With("controller", cfg.Name))
}

// app holds everything a run owns.
type app struct {
	log       *logging.Logger
	bridge    *bridge.Bridge
	telemetry *influxdb.Client
	db        *database.DB
	journal   *audit.Journal
	hub       *api.Hub
	server    *api.Server
	stopHub   context.CancelFunc
}

func runBridge(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	err = a.bridge.RunPath(ctx, cfg.Input.Path)
	a.recordStats()

	switch {
	case errors.Is(err, context.Canceled):
		log.Info("interrupted")
		return err
	case err != nil:
		return err
	}
	log.Info("sextet stream finished")
	return nil
}

func newApp(ctx context.Context, cfg *config.Config, log *logging.Logger) (_ *app, err error) {
	a := &app{log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	var sinks []controller.EventSink
	var observers []bridge.Observer

	if cfg.InfluxDB.Enabled {
		a.telemetry, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		a.telemetry.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks = append(sinks, a.telemetry)
		observers = append(observers, a.telemetry)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Debug("InfluxDB disabled")
	}

	if cfg.Database.Enabled {
		a.db, err = database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err = a.db.Migrate(ctx, migrations.FS); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		a.journal = audit.NewJournal(audit.NewSQLiteRepository(a.db.DB), 0, log.Component("journal"))
		sinks = append(sinks, a.journal)
		log.Info("event journal enabled", "path", cfg.Database.Path)
	}

	if cfg.API.Enabled {
		var hubCtx context.Context
		hubCtx, a.stopHub = context.WithCancel(context.WithoutCancel(ctx))
		a.hub = api.NewHub(cfg.API.WebSocket, log.Component("websocket"))
		go a.hub.Run(hubCtx)
		sinks = append(sinks, a.hub)
		observers = append(observers, a.hub)
	}

	command := commandSettings(cfg)
	sessions := make([]bridge.Session, 0, len(cfg.Controllers))
	for _, cc := range cfg.Controllers {
		session, err := controller.NewSession(controller.SessionOptions{
			Name:           cc.Name,
			Client:         newControllerClient(cc, log),
			Command:        command,
			InitialWait:    cfg.GetInitialWait(),
			RetryDelay:     cfg.GetRetryDelay(),
			ConnectTimeout: cfg.GetConnectTimeout(),
			Sinks:          sinks,
			Logger:         log.Component("controller"),
		})
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	a.bridge, err = bridge.New(bridge.Options{
		Sessions:  sessions,
		MainLight: cfg.Lights.MainLight,
		QueueSize: cfg.Input.QueueSize,
		Observers: observers,
		Logger:    log.Component("bridge"),
	})
	if err != nil {
		return nil, err
	}

	if cfg.API.Enabled {
		var journal audit.Repository
		if a.db != nil {
			journal = audit.NewSQLiteRepository(a.db.DB)
		}
		a.server, err = api.New(api.Deps{
			Config:      cfg.API,
			Logger:      log.Component("api"),
			Stats:       a.bridge,
			Journal:     journal,
			ExternalHub: a.hub,
			Version:     Version,
		})
		if err != nil {
			return nil, err
		}
		if err = a.server.Start(ctx); err != nil {
			return nil, fmt.Errorf("starting API server: %w", err)
		}
	}
	return a, nil
}

// commandSettings converts validated light settings.
func commandSettings(cfg *config.Config) controller.CommandSettings {
	lights := cfg.Lights
	return controller.CommandSettings{
		Brightness: lights.Brightness,
		// #nosec G115 -- components validated to 0-255
		Color: controller.Color{
			R: uint8(lights.Color.R),
			G: uint8(lights.Color.G),
			B: uint8(lights.Color.B),
		},
		OnTransition:  cfg.GetOnTransition(),
		OffTransition: cfg.GetOffTransition(),
	}
}

func (a *app) recordStats() {
	stats := a.bridge.Stats()
	a.log.Info("bridge statistics",
		"frames", stats.Frames,
		"transitions", stats.Transitions,
		"partial_bytes", stats.PartialBytes)

	if a.telemetry == nil {
		return
	}
	for name, s := range stats.Sessions {
		a.telemetry.WriteSessionStats(name, s)
	}
}

func (a *app) close() {
	if a.server != nil {
		if err := a.server.Close(); err != nil {
			a.log.Error("error closing API server", "error", err)
		}
	}
	if a.stopHub != nil {
		a.stopHub()
	}
	if a.journal != nil {
		a.journal.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
	}
	if a.telemetry != nil {
		if err := a.telemetry.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	}
}
