package main

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bpnn/routeplan"
	"github.com/bpnn/routeplan/codec"
	"github.com/bpnn/routeplan/distance"
	"github.com/bpnn/routeplan/geocode"
	"github.com/bpnn/routeplan/internal/httpapi"
	"github.com/bpnn/routeplan/route"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix prefixes every environment variable, e.g. ROUTEPLAN_LISTEN_ADDR.
const envPrefix = "ROUTEPLAN"

// Config validation errors
var (
	ErrInvalidListenAddr       = errors.New("listen_addr cannot be empty")
	ErrInvalidLogFormat        = errors.New("log_format must be 'json' or 'text'")
	ErrInvalidLogLevel         = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidDepot            = errors.New("depot_lat/depot_lng must be a valid coordinate")
	ErrInvalidGeocodeRate      = errors.New("geocode_rps must be positive")
	ErrInvalidRouteConcurrency = errors.New("route_concurrency must be positive")
	ErrInvalidCacheBackend     = errors.New("cache_backend must be none, local, s3, or minio")
	ErrInvalidCacheCompression = errors.New("cache_compression must be zstd, lz4, or none")
	ErrMissingCacheDir         = errors.New("cache_dir cannot be empty")
	ErrMissingS3Bucket         = errors.New("s3_bucket is required for the s3 cache backend")
	ErrMissingMinioEndpoint    = errors.New("minio_endpoint and minio_bucket are required for the minio cache backend")
	ErrInvalidDelivererBackend = errors.New("deliverer_backend must be memory, dynamodb, or duckdb")
	ErrMissingDynamoTable      = errors.New("dynamo_table is required for the dynamodb deliverer backend")
	ErrInvalidShutdownTimeout  = errors.New("shutdown_timeout must be positive")
)

// Config is read from ROUTEPLAN_* environment variables.
type Config struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:"0.0.0.0:8000"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	DepotAddress string  `envconfig:"DEPOT_ADDRESS" default:"1200 E Verona Ave Verona WI"`
	DepotLat     float64 `envconfig:"DEPOT_LAT" default:"42.995268"`
	DepotLng     float64 `envconfig:"DEPOT_LNG" default:"-89.514444"`

	NominatimURL string  `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent    string  `envconfig:"USER_AGENT" default:"BNNP_Flags"`
	GeocodeRPS   float64 `envconfig:"GEOCODE_RPS" default:"1"`

	// Routing disables route sequencing when false.
	Routing          bool   `envconfig:"ROUTING" default:"true"`
	OSRMURL          string `envconfig:"OSRM_URL" default:"http://router.project-osrm.org"`
	OSRMProfile      string `envconfig:"OSRM_PROFILE" default:"driving"`
	RouteFallback    bool   `envconfig:"ROUTE_FALLBACK" default:"true"`
	RouteConcurrency int    `envconfig:"ROUTE_CONCURRENCY" default:"2"`

	CacheBackend       string        `envconfig:"CACHE_BACKEND" default:"local"`
	CacheDir           string        `envconfig:"CACHE_DIR" default:"./data"`
	CacheCompression   string        `envconfig:"CACHE_COMPRESSION" default:"zstd"`
	CacheFlushInterval time.Duration `envconfig:"CACHE_FLUSH_INTERVAL" default:"5m"`

	AWSRegion string `envconfig:"AWS_REGION"`
	S3Bucket  string `envconfig:"S3_BUCKET"`
	S3Prefix  string `envconfig:"S3_PREFIX" default:"routeplan/"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET"`
	MinioSecure    bool   `envconfig:"MINIO_SECURE" default:"false"`

	DelivererBackend string `envconfig:"DELIVERER_BACKEND" default:"memory"`
	DynamoTable      string `envconfig:"DYNAMO_TABLE"`
	DuckDBPath       string `envconfig:"DUCKDB_PATH"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	depot := routeplan.DefaultDepot()
	return Config{
		ListenAddr:         "0.0.0.0:8000",
		AllowedOrigins:     []string{httpapi.DefaultAllowedOrigin},
		MaxUploadBytes:     httpapi.DefaultMaxUploadBytes,
		ShutdownTimeout:    15 * time.Second,
		LogFormat:          "json",
		LogLevel:           "info",
		DepotAddress:       depot.Address,
		DepotLat:           depot.Location.Lat,
		DepotLng:           depot.Location.Lng,
		NominatimURL:       geocode.DefaultNominatimURL,
		UserAgent:          geocode.DefaultUserAgent,
		GeocodeRPS:         1,
		Routing:            true,
		OSRMURL:            route.DefaultOSRMURL,
		OSRMProfile:        route.DefaultProfile,
		RouteFallback:      true,
		RouteConcurrency:   routeplan.DefaultRouteConcurrency,
		CacheBackend:       "local",
		CacheDir:           "./data",
		CacheCompression:   "zstd",
		CacheFlushInterval: 5 * time.Minute,
		S3Prefix:           "routeplan/",
		DelivererBackend:   "memory",
	}
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return ErrInvalidLogFormat
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return ErrInvalidLogLevel
	}
	if !(distance.LatLng{Lat: cfg.DepotLat, Lng: cfg.DepotLng}).Valid() {
		return ErrInvalidDepot
	}
	if cfg.GeocodeRPS <= 0 {
		return ErrInvalidGeocodeRate
	}
	if cfg.RouteConcurrency <= 0 {
		return ErrInvalidRouteConcurrency
	}
	if cfg.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	switch cfg.CacheBackend {
	case "none":
	case "local":
		if cfg.CacheDir == "" {
			return ErrMissingCacheDir
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return ErrMissingS3Bucket
		}
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return ErrMissingMinioEndpoint
		}
	default:
		return ErrInvalidCacheBackend
	}
	if _, err := codec.ParseCompression(cfg.CacheCompression); err != nil {
		return ErrInvalidCacheCompression
	}

	switch cfg.DelivererBackend {
	case "memory", "duckdb":
	case "dynamodb":
		if cfg.DynamoTable == "" {
			return ErrMissingDynamoTable
		}
	default:
		return ErrInvalidDelivererBackend
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToLower(s)))
	return level, err
}
