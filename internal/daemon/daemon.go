package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plancoach/plancoach/internal/api"
	"github.com/plancoach/plancoach/internal/app/engagement"
	"github.com/plancoach/plancoach/internal/health"
	_ "github.com/plancoach/plancoach/internal/infra/metrics" // register Prometheus metrics
	"github.com/plancoach/plancoach/internal/infra/sqlite"
)

// Daemon is the core PlanCoach runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Engine *engagement.Engine
	Server *api.Server
	Health *health.Checker
	loc    *time.Location
	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	dataDir := cfg.Data.Dir
	if dataDir == "" {
		dataDir = plancoachHome()
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		db.Close()
		return nil, err
	}

	var notifier engagement.Notifier = engagement.NopNotifier{}
	if cfg.Notifications.Enabled {
		notifier = engagement.NewNotificationService(db, cfg.NotificationPolicy(), loc)
	}

	engine := engagement.NewEngine(db, loc, notifier)
	checker := health.NewChecker(db, dataDir)

	srv := api.NewServer(engine, checker)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config: cfg,
		DB:     db,
		Engine: engine,
		Server: srv,
		Health: checker,
		loc:    loc,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)
	go d.streakWarningLoop(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("PlanCoach serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// streakWarningLoop checks hourly whether an active streak will break at
// midnight and queues a warning via the notifier.
func (d *Daemon) streakWarningLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Only warn in the evening of the streak timezone; the
			// notifier's quiet hours still apply on top.
			if isEvening(time.Now(), d.loc) {
				if d.Engine.CheckStreakAtRisk() {
					log.Printf("[daemon] streak at risk, warning queued")
				}
			}
		}
	}
}

// isEvening reports whether now falls in the warning window, measured in
// the streak timezone rather than the system zone.
func isEvening(now time.Time, loc *time.Location) bool {
	return now.In(loc).Hour() >= 18
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
