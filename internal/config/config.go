package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the daemon
type Config struct {
	DataDir         string
	BoundariesPath  string
	FIRMetadataPath string
	PalettePath     string
	ExportPath      string
	RefreshInterval time.Duration
	MetricsAddr     string
	Store           StoreConfig
	Reconcile       ReconcileConfig
	Resolver        ResolverConfig
	Log             LogConfig
}

// StoreConfig selects the feature store backend
type StoreConfig struct {
	Driver string // memory or sqlite
	Path   string
}

// ReconcileConfig holds the display options applied to every pass
type ReconcileConfig struct {
	BookingOverride   bool
	FallbackOnly      bool
	FallbackCallsigns []string
	CombinedSectors   bool
	DynamicActive     bool
	LevelMin          *int // nil when no level is selected
	LevelMax          *int
}

// ResolverConfig controls the per-pilot handoff tracker
type ResolverConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	Format     string
	File       string // empty logs to stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("data_dir", "data")
	v.SetDefault("boundaries_path", "data/Boundaries.geojson")
	v.SetDefault("fir_metadata_path", "")
	v.SetDefault("palette_path", "")
	v.SetDefault("export_path", "sectors.geojson")
	v.SetDefault("refresh_interval", "15s")
	v.SetDefault("metrics_addr", ":9102")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "sectors.db")
	v.SetDefault("reconcile.booking_override", false)
	v.SetDefault("reconcile.fallback_only", false)
	v.SetDefault("reconcile.fallback_callsigns", []string{})
	v.SetDefault("reconcile.combined_sectors", false)
	v.SetDefault("reconcile.dynamic_active", true)
	v.SetDefault("resolver.cache_size", 4096)
	v.SetDefault("resolver.cache_ttl", "10m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 64)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	// Set config file name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Set config file search paths
	v.AddConfigPath("/etc/sectorwatch")
	v.AddConfigPath(".")

	// Check for config file path from environment variable
	if configPath := os.Getenv("SECTORWATCH_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Read config file (if it exists). Logging is not initialized yet.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set environment variable prefix
	v.SetEnvPrefix("SECTORWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		DataDir:         v.GetString("data_dir"),
		BoundariesPath:  v.GetString("boundaries_path"),
		FIRMetadataPath: v.GetString("fir_metadata_path"),
		PalettePath:     v.GetString("palette_path"),
		ExportPath:      v.GetString("export_path"),
		RefreshInterval: v.GetDuration("refresh_interval"),
		MetricsAddr:     v.GetString("metrics_addr"),
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			Path:   v.GetString("store.path"),
		},
		Reconcile: ReconcileConfig{
			BookingOverride:   v.GetBool("reconcile.booking_override"),
			FallbackOnly:      v.GetBool("reconcile.fallback_only"),
			FallbackCallsigns: v.GetStringSlice("reconcile.fallback_callsigns"),
			CombinedSectors:   v.GetBool("reconcile.combined_sectors"),
			DynamicActive:     v.GetBool("reconcile.dynamic_active"),
			LevelMin:          optionalInt(v, "reconcile.level_min"),
			LevelMax:          optionalInt(v, "reconcile.level_max"),
		},
		Resolver: ResolverConfig{
			CacheSize: v.GetInt("resolver.cache_size"),
			CacheTTL:  v.GetDuration("resolver.cache_ttl"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func optionalInt(v *viper.Viper, key string) *int {
	if !v.IsSet(key) {
		return nil
	}
	n := v.GetInt(key)
	return &n
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if cfg.BoundariesPath == "" {
		return fmt.Errorf("boundaries_path is required")
	}

	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be greater than 0")
	}

	switch cfg.Store.Driver {
	case "memory":
	case "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be memory or sqlite)", cfg.Store.Driver)
	}

	if cfg.Reconcile.FallbackOnly && len(cfg.Reconcile.FallbackCallsigns) == 0 {
		return fmt.Errorf("reconcile.fallback_callsigns must not be empty when reconcile.fallback_only is set")
	}

	if lo, hi := cfg.Reconcile.LevelMin, cfg.Reconcile.LevelMax; lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("reconcile.level_min (%d) is above reconcile.level_max (%d)", *lo, *hi)
	}

	if cfg.Resolver.CacheSize <= 0 {
		return fmt.Errorf("resolver.cache_size must be greater than 0")
	}

	if cfg.Resolver.CacheTTL <= 0 {
		return fmt.Errorf("resolver.cache_ttl must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
