package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"sectorwatch/internal/features"
	"sectorwatch/internal/geometry"
	"sectorwatch/internal/models"
	"sectorwatch/internal/observability"
)

// BoundaryLookup resolves a boundary identifier to its stored shape
type BoundaryLookup interface {
	Lookup(boundary string) (orb.MultiPolygon, bool)
}

// Result counts what one pass did to the store
type Result struct {
	Added   int
	Updated int
	Removed int
	Skipped int
}

// Reconciler turns a roster and dynamic ownership snapshot into the set of
// sector features that should exist and applies the difference to a Store.
// Passes must not overlap: the sweep at the end of a pass assumes nothing
// else mutates the store.
type Reconciler struct {
	store      features.Store
	boundaries BoundaryLookup
	metrics    *observability.Collector
}

// New creates a reconciler. metrics may be nil.
func New(store features.Store, boundaries BoundaryLookup, metrics *observability.Collector) *Reconciler {
	return &Reconciler{
		store:      store,
		boundaries: boundaries,
		metrics:    metrics,
	}
}

// Reconcile runs one generation. Per-item problems are logged and skipped;
// only store failures are returned, in which case the sweep does not run.
func (r *Reconciler) Reconcile(roster []models.FirEntry, ownership *models.ActivePositionIndex, opts Options) (Result, error) {
	start := time.Now()
	var res Result
	active := make(map[string]struct{})

	for i := range roster {
		if err := r.reconcileFir(&roster[i], opts, active, &res); err != nil {
			return res, err
		}
	}

	if ownership != nil && opts.DynamicActive && !opts.BookingOverride {
		if err := r.reconcileDynamic(ownership, opts, active, &res); err != nil {
			return res, err
		}
	}

	if err := r.sweep(active, &res); err != nil {
		return res, err
	}

	r.metrics.ObserveReconcile(res.Added, res.Updated, res.Removed, time.Since(start))
	slog.Debug("Reconciled sectors",
		"added", res.Added,
		"updated", res.Updated,
		"removed", res.Removed,
		"skipped", res.Skipped,
		"active", len(active),
	)
	return res, nil
}

func (r *Reconciler) reconcileFir(entry *models.FirEntry, opts Options, active map[string]struct{}, res *Result) error {
	firList, uirList := partition(entry.Assignments, opts)

	kind := models.KindEmpty
	var controllers []models.ControllerRef
	switch {
	case len(firList) > 0:
		kind = models.KindFir
		controllers = refs(firList)
	case len(uirList) > 0:
		kind = models.KindUir
		controllers = refs(uirList)
	}

	var secondary string
	if len(uirList) > 0 {
		secondary = uirList[0].ICAO
	}

	shape, ok := r.boundaries.Lookup(entry.Boundary)
	if !ok {
		slog.Warn("No stored geometry for boundary, skipping", "boundary", entry.Boundary, "icao", entry.PrimaryICAO)
		r.metrics.MissingGeometry()
		res.Skipped++
		return nil
	}

	id := "sector-" + entry.PrimaryICAO + entry.Callsign + entry.Boundary + kind.String()
	active[id] = struct{}{}

	booked := opts.BookingOverride || entry.HasBooking
	duplicated := models.AllDuplicated(controllers)

	existing, err := r.store.Get(id)
	switch {
	case err == nil:
		existing.Booked = booked
		existing.Duplicated = duplicated
		existing.Controllers = controllers
		existing.PrimaryICAO = entry.PrimaryICAO
		existing.SecondaryICAO = secondary
		if err := r.store.Update(existing); err != nil {
			return fmt.Errorf("failed to update feature %s: %w", id, err)
		}
		res.Updated++
	case errors.Is(err, features.ErrNotFound):
		sector := &models.Sector{
			ID:            id,
			Kind:          kind,
			Geometry:      shape.Clone(),
			PrimaryICAO:   entry.PrimaryICAO,
			SecondaryICAO: secondary,
			Booked:        booked,
			Duplicated:    duplicated,
			Controllers:   controllers,
		}
		if err := r.store.Add(sector); err != nil {
			return fmt.Errorf("failed to add feature %s: %w", id, err)
		}
		res.Added++
	default:
		return fmt.Errorf("failed to look up feature %s: %w", id, err)
	}
	return nil
}

// partition splits assignments into primary and overlay lists, applying the
// fallback filter and keeping only the first assignment per cid in each list
func partition(assignments []models.Assignment, opts Options) (firList, uirList []models.Assignment) {
	seenFir := make(map[int]bool)
	seenUir := make(map[int]bool)
	for _, a := range assignments {
		if opts.FallbackPositionsOnly && !opts.FallbackCallsigns[a.Controller.Callsign] {
			continue
		}
		if a.IsUIR() {
			if seenUir[a.Controller.CID] {
				continue
			}
			seenUir[a.Controller.CID] = true
			uirList = append(uirList, a)
		} else {
			if seenFir[a.Controller.CID] {
				continue
			}
			seenFir[a.Controller.CID] = true
			firList = append(firList, a)
		}
	}
	return firList, uirList
}

func refs(assignments []models.Assignment) []models.ControllerRef {
	out := make([]models.ControllerRef, len(assignments))
	for i, a := range assignments {
		out[i] = a.Controller
	}
	return out
}

// CacheKey is the vgSectorId shared by all features of one dynamic position
func CacheKey(countryGroupID, positionID string, combined bool) string {
	return "sector-" + countryGroupID + positionID + strconv.FormatBool(combined)
}

func (r *Reconciler) reconcileDynamic(ownership *models.ActivePositionIndex, opts Options, active map[string]struct{}, res *Result) error {
	all, err := r.store.All()
	if err != nil {
		return fmt.Errorf("failed to list features: %w", err)
	}
	existing := make(map[string][]*models.Sector)
	for _, s := range all {
		if s.Kind == models.KindVatglasses && s.Vatglasses != nil {
			existing[s.Vatglasses.VGSectorID] = append(existing[s.Vatglasses.VGSectorID], s)
		}
	}

	for gi := range ownership.Groups {
		group := &ownership.Groups[gi]
		for pi := range group.Positions {
			pos := &group.Positions[pi]
			if !pos.Data.Active() {
				continue
			}

			key := CacheKey(group.ID, pos.ID, opts.CombinedSectors)
			if _, seen := active[key]; seen {
				// ids are concatenated, so "ab"+"c" and "a"+"bc" collide
				slog.Warn("Position cache key already used this pass, skipping", "group", group.ID, "position", pos.ID, "key", key)
				res.Skipped++
				continue
			}
			active[key] = struct{}{}
			controllers := append([]models.ControllerRef(nil), pos.Data.Controllers...)

			if matches := existing[key]; len(matches) > 0 {
				for _, s := range matches {
					s.Controllers = controllers
					s.Duplicated = models.AllDuplicated(controllers)
					if err := r.store.Update(s); err != nil {
						return fmt.Errorf("failed to update feature %s: %w", s.ID, err)
					}
					res.Updated++
				}
				continue
			}

			for i, poly := range selectPolygons(&pos.Data, opts) {
				if len(poly.Points) < 3 {
					slog.Debug("Skipping degenerate position polygon", "group", group.ID, "position", pos.ID, "index", i)
					continue
				}
				sector := &models.Sector{
					ID:          key + "-" + strconv.Itoa(i),
					Kind:        models.KindVatglasses,
					Geometry:    geometry.Polygon(poly.Points),
					PrimaryICAO: pos.ID,
					Duplicated:  models.AllDuplicated(controllers),
					Controllers: controllers,
					Vatglasses: &models.VatglassesInfo{
						CountryGroupID: group.ID,
						PositionID:     pos.ID,
						VGSectorID:     key,
						MinAltitude:    poly.Min,
						MaxAltitude:    poly.Max,
						Colour:         pos.Data.Colour,
					},
				}
				if err := r.store.Add(sector); err != nil {
					return fmt.Errorf("failed to add feature %s: %w", sector.ID, err)
				}
				res.Added++
			}
		}
	}
	return nil
}

func selectPolygons(pos *models.PositionData, opts Options) []models.AltitudeBandedPolygon {
	if opts.CombinedSectors {
		return pos.SectorsCombined
	}
	out := make([]models.AltitudeBandedPolygon, 0, len(pos.Sectors))
	for _, s := range pos.Sectors {
		if opts.overlaps(s.Min, s.Max) {
			out = append(out, s)
		}
	}
	return out
}

func (r *Reconciler) sweep(active map[string]struct{}, res *Result) error {
	all, err := r.store.All()
	if err != nil {
		return fmt.Errorf("failed to list features: %w", err)
	}
	for _, s := range all {
		if _, ok := active[s.SweepKey()]; ok {
			continue
		}
		if err := r.store.Remove(s.ID); err != nil {
			return fmt.Errorf("failed to remove feature %s: %w", s.ID, err)
		}
		res.Removed++
	}
	r.metrics.SetFeatures(len(all) - res.Removed)
	return nil
}
