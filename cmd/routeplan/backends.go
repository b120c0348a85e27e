package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/bpnn/routeplan"
	"github.com/bpnn/routeplan/blobstore"
	"github.com/bpnn/routeplan/blobstore/minio"
	"github.com/bpnn/routeplan/blobstore/s3"
	"github.com/bpnn/routeplan/codec"
	"github.com/bpnn/routeplan/deliverer"
	"github.com/bpnn/routeplan/distance"
	"github.com/bpnn/routeplan/geocode"
	"github.com/bpnn/routeplan/internal/resource"
	"github.com/bpnn/routeplan/route"
)

// newCacheStore returns the blob store backing the geocode cache snapshot, or
// nil for an in-memory cache. Remote backends are fronted by a local copy.
func newCacheStore(ctx context.Context, cfg *Config, logger *slog.Logger) (blobstore.Store, error) {
	var remote blobstore.Store
	switch cfg.CacheBackend {
	case "none":
		return nil, nil
	case "local":
		return blobstore.NewLocalStore(cfg.CacheDir), nil
	case "s3":
		store, err := s3.New(ctx, cfg.S3Bucket, s3.WithPrefix(cfg.S3Prefix), s3.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		remote = store
	case "minio":
		store, err := minio.Dial(ctx, minio.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.AWSRegion,
			Secure:    cfg.MinioSecure,
		})
		if err != nil {
			return nil, err
		}
		remote = store
	default:
		return nil, ErrInvalidCacheBackend
	}

	local := blobstore.Store(blobstore.NewMemoryStore())
	if cfg.CacheDir != "" {
		local = blobstore.NewLocalStore(filepath.Join(cfg.CacheDir, "remote"))
	}
	return blobstore.NewTieredStore(remote, local, logger), nil
}

// newCache creates the geocode cache and loads its last snapshot.
func newCache(ctx context.Context, cfg *Config, logger *slog.Logger) (*geocode.Cache, error) {
	store, err := newCacheStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("cache store: %w", err)
	}
	comp, err := codec.ParseCompression(cfg.CacheCompression)
	if err != nil {
		return nil, err
	}

	cache := geocode.NewCache(store, geocode.DefaultSnapshotName,
		geocode.WithCompression(comp),
		geocode.WithCacheLogger(logger),
	)
	if err := cache.Load(ctx); err != nil {
		return nil, fmt.Errorf("load geocode cache: %w", err)
	}
	return cache, nil
}

// newDelivererStore returns the deliverer store and a function releasing it.
func newDelivererStore(ctx context.Context, cfg *Config) (deliverer.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.DelivererBackend {
	case "memory":
		return deliverer.NewMemoryStore(), noop, nil
	case "duckdb":
		store, err := deliverer.OpenDuckDB(ctx, cfg.DuckDBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "dynamodb":
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		return deliverer.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable), noop, nil
	default:
		return nil, nil, ErrInvalidDelivererBackend
	}
}

// newPlanner wires the geocoder and router into a Planner.
func newPlanner(cfg *Config, cache *geocode.Cache, logger *routeplan.Logger, metrics routeplan.MetricsCollector) (*routeplan.Planner, error) {
	nominatim := geocode.NewNominatim(
		geocode.WithBaseURL(cfg.NominatimURL),
		geocode.WithUserAgent(cfg.UserAgent),
		geocode.WithLogger(logger.Logger),
		geocode.WithController(resource.NewController(resource.Config{
			Name:              "nominatim",
			RequestsPerSecond: cfg.GeocodeRPS,
			Breaker:           resource.DefaultBreakerConfig(),
		}, logger.Logger)),
	)

	opts := []routeplan.Option{
		routeplan.WithGeocoder(geocode.NewCachingGeocoder(nominatim, cache, logger.Logger)),
		routeplan.WithDepot(route.Place{
			Address:  cfg.DepotAddress,
			Location: distance.LatLng{Lat: cfg.DepotLat, Lng: cfg.DepotLng},
		}),
		routeplan.WithLogger(logger),
		routeplan.WithMetricsCollector(metrics),
		routeplan.WithRouteConcurrency(cfg.RouteConcurrency),
	}

	if !cfg.Routing {
		opts = append(opts, routeplan.WithoutRouting())
		return routeplan.New(opts...)
	}

	var router route.Optimizer = route.NewOSRM(
		route.WithBaseURL(cfg.OSRMURL),
		route.WithProfile(cfg.OSRMProfile),
		route.WithLogger(logger.Logger),
	)
	if cfg.RouteFallback {
		router = &route.Fallback{
			Primary:   router,
			Secondary: route.NewNearestNeighbor(),
			Logger:    logger.Logger,
		}
	}
	opts = append(opts, routeplan.WithRouter(router))
	return routeplan.New(opts...)
}
