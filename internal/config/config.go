package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// DefaultClassifierArgs invokes BirdNET-Analyzer with CSV output.
const DefaultClassifierArgs = "{input},-o,{output},--lat,{lat},--lon,{lon},--week,{week},--min_conf,{min_conf},--rtype,csv"

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	RawDataDir       string
	ProcessedDataDir string
	AnalyticsDataDir string

	MonitorName   string
	DataloadBatch string // empty means every DataLoad_* folder
	MinConfidence float64
	DefaultLat    float64
	DefaultLon    float64
	Workers       int

	ClassifierCommand string
	ClassifierArgs    []string
	ClassifierTimeout time.Duration

	ParquetCompression string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Run-completion events.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	// Mapbox reverse geocoding of monitor sites.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	ArtifactCacheSize int

	// Batch commands push their metrics here when set.
	PushgatewayURL string
	PushgatewayJob string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file (ENV_FILE, default ".env") is loaded first and
// never overrides variables that are already set.
func Load() (*Config, error) {
	if err := loadDotEnv(envOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	minConf, err := parseFloat("MIN_CONFIDENCE", 0.5)
	if err != nil {
		return nil, err
	}
	defaultLat, err := parseFloat("DEFAULT_LAT", domain.DefaultCoordinates.Lat)
	if err != nil {
		return nil, err
	}
	defaultLon, err := parseFloat("DEFAULT_LON", domain.DefaultCoordinates.Lon)
	if err != nil {
		return nil, err
	}
	workers, err := parseIntRange("WORKERS", 1, 1, 64)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseIntRange("ARTIFACT_CACHE_SIZE", 128, 1, 1<<16)
	if err != nil {
		return nil, err
	}
	classifierTimeout, err := parseDuration("CLASSIFIER_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	brokers := parseList(envOrDefault("KAFKA_BROKERS", ""))
	mapboxToken := envOrDefault("MAPBOX_TOKEN", "")

	cfg := &Config{
		RawDataDir:       envOrDefault("RAW_DATA_DIR", "data/raw"),
		ProcessedDataDir: envOrDefault("PROCESSED_DATA_DIR", "data/processed"),
		AnalyticsDataDir: envOrDefault("ANALYTICS_DATA_DIR", "data/analytics"),

		MonitorName:   envOrDefault("MONITOR_NAME", "wrangcombe_audio1"),
		DataloadBatch: envOrDefault("DATALOAD_BATCH", ""),
		MinConfidence: minConf,
		DefaultLat:    defaultLat,
		DefaultLon:    defaultLon,
		Workers:       workers,

		ClassifierCommand: envOrDefault("CLASSIFIER_COMMAND", "birdnet-analyze"),
		ClassifierArgs:    parseList(envOrDefault("CLASSIFIER_ARGS", DefaultClassifierArgs)),
		ClassifierTimeout: classifierTimeout,

		ParquetCompression: strings.ToUpper(envOrDefault("PARQUET_COMPRESSION", "SNAPPY")),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "bird-detect-runs"),
		KafkaEnabled: parseToggle("KAFKA_ENABLED", len(brokers) > 0),

		MapboxToken:   mapboxToken,
		MapboxEnabled: parseToggle("MAPBOX_ENABLED", mapboxToken != ""),
		MapboxTimeout: mapboxTimeout,

		ArtifactCacheSize: cacheSize,

		PushgatewayURL: envOrDefault("PUSHGATEWAY_URL", ""),
		PushgatewayJob: envOrDefault("PUSHGATEWAY_JOB", "birdetl"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. CLI flag overrides call it again.
func (c *Config) Validate() error {
	if c.MonitorName == "" {
		return errors.New("MONITOR_NAME is required")
	}
	if err := domain.ValidateMonitor(c.MonitorName); err != nil {
		return fmt.Errorf("invalid MONITOR_NAME: %w", err)
	}
	if c.DataloadBatch != "" && !strings.HasPrefix(c.DataloadBatch, domain.DataloadPrefix) {
		return fmt.Errorf("invalid DATALOAD_BATCH %q: must start with %s", c.DataloadBatch, domain.DataloadPrefix)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.New("invalid MIN_CONFIDENCE: must be between 0 and 1")
	}
	if c.DefaultLat < -90 || c.DefaultLat > 90 {
		return errors.New("invalid DEFAULT_LAT")
	}
	if c.DefaultLon < -180 || c.DefaultLon > 180 {
		return errors.New("invalid DEFAULT_LON")
	}
	if c.Workers < 1 || c.Workers > 64 {
		return errors.New("invalid WORKERS: must be between 1 and 64")
	}
	if c.ClassifierCommand == "" {
		return errors.New("CLASSIFIER_COMMAND is required")
	}
	switch c.ParquetCompression {
	case "SNAPPY", "GZIP", "NONE":
	default:
		return fmt.Errorf("invalid PARQUET_COMPRESSION %q", c.ParquetCompression)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if c.PushgatewayURL != "" {
		u, err := url.Parse(c.PushgatewayURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid PUSHGATEWAY_URL %q: must be an http(s) URL", c.PushgatewayURL)
		}
		if c.PushgatewayJob == "" {
			return errors.New("PUSHGATEWAY_JOB is required when PUSHGATEWAY_URL is set")
		}
	}
	return nil
}

// Layout returns the artifact layout rooted at the configured directories.
func (c *Config) Layout() domain.Layout {
	return domain.Layout{
		RawDir:       c.RawDataDir,
		ProcessedDir: c.ProcessedDataDir,
		AnalyticsDir: c.AnalyticsDataDir,
	}
}

// DefaultCoordinates is the position used for monitors without a summary log.
func (c *Config) DefaultCoordinates() domain.Coordinates {
	return domain.Coordinates{Lat: c.DefaultLat, Lon: c.DefaultLon}
}
