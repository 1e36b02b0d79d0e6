package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the refresh loop. All methods
// are safe to call on a nil *Collector so components can run without metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	FeatureChanges    *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	Features          prometheus.Gauge
	MissingGeometries prometheus.Counter
	MissingAirspace   prometheus.Counter
	Resolutions       *prometheus.CounterVec
	StyleLookups      *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	changes, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sectorwatch_feature_changes_total",
		Help: "Sector feature mutations applied by reconciliation, labeled by operation.",
	}, []string{"op"}), "sectorwatch_feature_changes_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sectorwatch_reconcile_duration_seconds",
		Help:    "Duration of one reconciliation pass in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "sectorwatch_reconcile_duration_seconds")
	if err != nil {
		return nil, err
	}

	featureGauge, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sectorwatch_features",
		Help: "Number of sector features in the store after the last pass.",
	}), "sectorwatch_features")
	if err != nil {
		return nil, err
	}

	missingGeometry, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sectorwatch_missing_geometry_total",
		Help: "Roster boundaries skipped because no stored shape exists.",
	}), "sectorwatch_missing_geometry_total")
	if err != nil {
		return nil, err
	}

	missingAirspace, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sectorwatch_missing_airspace_total",
		Help: "Airspace keys that did not resolve inside their country group definition.",
	}), "sectorwatch_missing_airspace_total")
	if err != nil {
		return nil, err
	}

	resolutions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sectorwatch_frequency_resolutions_total",
		Help: "Controlling frequency lookups, labeled by result (found, none).",
	}, []string{"result"}), "sectorwatch_frequency_resolutions_total")
	if err != nil {
		return nil, err
	}

	styles, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sectorwatch_style_lookups_total",
		Help: "Style memoizer lookups, labeled by result (hit, miss).",
	}, []string{"result"}), "sectorwatch_style_lookups_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		FeatureChanges:    changes,
		ReconcileDuration: duration,
		Features:          featureGauge,
		MissingGeometries: missingGeometry,
		MissingAirspace:   missingAirspace,
		Resolutions:       resolutions,
		StyleLookups:      styles,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveReconcile(added, updated, removed int, d time.Duration) {
	if c == nil {
		return
	}
	c.FeatureChanges.WithLabelValues("add").Add(float64(added))
	c.FeatureChanges.WithLabelValues("update").Add(float64(updated))
	c.FeatureChanges.WithLabelValues("remove").Add(float64(removed))
	c.ReconcileDuration.Observe(d.Seconds())
}

func (c *Collector) SetFeatures(n int) {
	if c == nil {
		return
	}
	c.Features.Set(float64(n))
}

func (c *Collector) MissingGeometry() {
	if c == nil {
		return
	}
	c.MissingGeometries.Inc()
}

func (c *Collector) MissingDefinition() {
	if c == nil {
		return
	}
	c.MissingAirspace.Inc()
}

func (c *Collector) ObserveResolution(found bool) {
	if c == nil {
		return
	}
	result := "none"
	if found {
		result = "found"
	}
	c.Resolutions.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveStyleLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.StyleLookups.WithLabelValues(result).Inc()
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
