package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"

	"sectorwatch/internal/export"
	"sectorwatch/internal/features"
	"sectorwatch/internal/models"
	"sectorwatch/internal/reconcile"
	"sectorwatch/internal/resolver"
	"sectorwatch/internal/snapshot"
)

// SnapshotLoader hands out one refresh generation per call
type SnapshotLoader interface {
	Load() (*snapshot.Snapshot, error)
}

// RefreshTask reconciles the sector features against the latest generation,
// resolves every pilot's controlling frequency and writes the map export.
// A generation is fully applied before the next one is loaded.
type RefreshTask struct {
	source     SnapshotLoader
	store      features.Store
	reconciler *reconcile.Reconciler
	resolver   *resolver.Resolver
	tracker    *resolver.Tracker
	builder    *export.Builder
	exportPath string // empty disables the export
	opts       reconcile.Options
	interval   time.Duration
}

// RefreshConfig groups the collaborators of a RefreshTask
type RefreshConfig struct {
	Source     SnapshotLoader
	Store      features.Store
	Reconciler *reconcile.Reconciler
	Resolver   *resolver.Resolver
	Tracker    *resolver.Tracker
	Builder    *export.Builder
	ExportPath string
	Options    reconcile.Options
	Interval   time.Duration
}

// NewRefreshTask creates the task. Interval defaults to 15 seconds.
func NewRefreshTask(cfg RefreshConfig) *RefreshTask {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &RefreshTask{
		source:     cfg.Source,
		store:      cfg.Store,
		reconciler: cfg.Reconciler,
		resolver:   cfg.Resolver,
		tracker:    cfg.Tracker,
		builder:    cfg.Builder,
		exportPath: cfg.ExportPath,
		opts:       cfg.Options,
		interval:   interval,
	}
}

func (t *RefreshTask) Name() string {
	return "sector-refresh"
}

func (t *RefreshTask) Interval() time.Duration {
	return t.interval
}

// Run applies one generation
func (t *RefreshTask) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snap, err := t.source.Load()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	res, err := t.reconciler.Reconcile(snap.Roster.Firs, snap.Ownership, t.opts)
	if err != nil {
		return fmt.Errorf("failed to reconcile generation %d: %w", snap.Generation, err)
	}

	pilots := t.resolvePilots(snap)

	if t.exportPath != "" && t.builder != nil {
		sectors, err := t.store.All()
		if err != nil {
			return fmt.Errorf("failed to list features: %w", err)
		}
		if err := export.WriteFile(t.exportPath, t.builder.Build(sectors, pilots)); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
	}

	slog.Info("Refreshed sectors",
		"generation", snap.Generation,
		"added", res.Added,
		"updated", res.Updated,
		"removed", res.Removed,
		"skipped", res.Skipped,
		"pilots", len(pilots),
	)
	return nil
}

func (t *RefreshTask) resolvePilots(snap *snapshot.Snapshot) []export.PilotPosition {
	if t.resolver == nil {
		return nil
	}
	t.resolver.SetEntities(snap.Pilots)

	all := snap.Pilots.All()
	out := make([]export.PilotPosition, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, pilot := range all {
		// Repeated callsigns resolve from their own position
		entityID := pilot.Callsign
		if seen[entityID] {
			entityID = ""
		}
		seen[pilot.Callsign] = true

		freq, _ := t.resolver.ResolveFrequency(entityID, snap.Ownership, snap.Definitions, pilotPoint(pilot), pilot.Altitude)
		if t.tracker != nil && t.tracker.Observe(pilot.Callsign, freq) {
			logHandoff(pilot, freq)
		}
		out = append(out, export.PilotPosition{Pilot: pilot, Frequency: freq})
	}
	return out
}

func pilotPoint(p models.Pilot) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

func logHandoff(pilot models.Pilot, freq *resolver.ControllingFrequency) {
	if freq == nil {
		slog.Debug("Pilot left controlled airspace", "callsign", pilot.Callsign)
		return
	}
	slog.Debug("Pilot handed off",
		"callsign", pilot.Callsign,
		"controller", freq.Callsign,
		"frequency", freq.Frequency,
		"position", freq.PositionID,
	)
}
