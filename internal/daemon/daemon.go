package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"sectorwatch/internal/boundaries"
	"sectorwatch/internal/config"
	"sectorwatch/internal/database"
	"sectorwatch/internal/export"
	"sectorwatch/internal/features"
	"sectorwatch/internal/geometry"
	"sectorwatch/internal/observability"
	"sectorwatch/internal/reconcile"
	"sectorwatch/internal/resolver"
	"sectorwatch/internal/scheduler"
	"sectorwatch/internal/snapshot"
	"sectorwatch/internal/style"
	"sectorwatch/internal/tasks"
)

// Daemon represents the main daemon structure
type Daemon struct {
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	database  *database.DB // nil for the in-memory store
	store     features.Store
	metrics   *observability.Collector
	stopOnce  sync.Once
}

// New wires the refresh pipeline from cfg. reg receives the metrics; nil
// uses the default Prometheus registry.
func New(cfg *config.Config, reg prometheus.Registerer) (*Daemon, error) {
	metrics, err := observability.NewCollector(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	index, err := boundaries.Load(cfg.BoundariesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load boundaries: %w", err)
	}

	var firs map[string]boundaries.FIRInfo
	if cfg.FIRMetadataPath != "" {
		firs, err = boundaries.LoadFIRMetadata(cfg.FIRMetadataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load FIR metadata: %w", err)
		}
	}

	palette := style.DefaultPalette()
	if cfg.PalettePath != "" {
		palette, err = style.LoadPalette(cfg.PalettePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load palette: %w", err)
		}
	}

	var (
		db    *database.DB
		store features.Store
	)
	switch cfg.Store.Driver {
	case "sqlite":
		db, err = database.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		store = db.SectorStore()
	default:
		store = features.NewMemoryStore()
	}

	arena := geometry.NewArena()
	refresh := tasks.NewRefreshTask(tasks.RefreshConfig{
		Source:     snapshot.NewSource(cfg.DataDir, arena),
		Store:      store,
		Reconciler: reconcile.New(store, index, metrics),
		Resolver:   resolver.New(arena, nil, metrics),
		Tracker:    resolver.NewTracker(cfg.Resolver.CacheSize, cfg.Resolver.CacheTTL),
		Builder:    export.NewBuilder(style.NewMemoizer(palette, metrics), firs),
		ExportPath: cfg.ExportPath,
		Options:    Options(cfg.Reconcile),
		Interval:   cfg.RefreshInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	sched := scheduler.New(ctx)
	sched.AddTask(refresh)

	return &Daemon{
		cancel:    cancel,
		scheduler: sched,
		database:  db,
		store:     store,
		metrics:   metrics,
	}, nil
}

// Options converts the reconcile section of the configuration
func Options(rc config.ReconcileConfig) reconcile.Options {
	opts := reconcile.Options{
		BookingOverride:       rc.BookingOverride,
		FallbackPositionsOnly: rc.FallbackOnly,
		CombinedSectors:       rc.CombinedSectors,
		DynamicActive:         rc.DynamicActive,
	}
	if len(rc.FallbackCallsigns) > 0 {
		opts.FallbackCallsigns = make(map[string]bool, len(rc.FallbackCallsigns))
		for _, cs := range rc.FallbackCallsigns {
			opts.FallbackCallsigns[cs] = true
		}
	}
	// A single bound selects exactly that level
	switch lo, hi := rc.LevelMin, rc.LevelMax; {
	case lo != nil && hi != nil:
		opts.SelectedLevel = &reconcile.LevelBand{Min: *lo, Max: *hi}
	case lo != nil:
		opts.SelectedLevel = &reconcile.LevelBand{Min: *lo, Max: *lo}
	case hi != nil:
		opts.SelectedLevel = &reconcile.LevelBand{Min: *hi, Max: *hi}
	}
	return opts
}

// Metrics returns the collector backing the daemon's Prometheus metrics
func (d *Daemon) Metrics() *observability.Collector {
	return d.metrics
}

// Store returns the feature store the refresh task writes to
func (d *Daemon) Store() features.Store {
	return d.store
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	d.scheduler.Start()

	slog.Info("Daemon started successfully")
	return nil
}

// Stop cancels the refresh loop, waits for an in-flight run and closes the
// store. It is safe to call before Start and more than once.
func (d *Daemon) Stop() error {
	d.stopOnce.Do(func() {
		slog.Info("Stopping daemon")
		d.cancel()
		d.scheduler.Stop()

		if d.database != nil {
			if err := d.database.Close(); err != nil {
				slog.Error("Error closing database", "error", err)
			}
		}
		slog.Info("Daemon stopped")
	})
	return nil
}
