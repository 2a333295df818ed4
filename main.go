package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"com.aviebrantz.pricetracker/pkg/api"
	"com.aviebrantz.pricetracker/pkg/cache"
	"com.aviebrantz.pricetracker/pkg/config"
	"com.aviebrantz.pricetracker/pkg/core/catalog"
	"com.aviebrantz.pricetracker/pkg/core/timeline"
	"com.aviebrantz.pricetracker/pkg/ingestion/snapshots"
	"com.aviebrantz.pricetracker/pkg/logging"
	"com.aviebrantz.pricetracker/pkg/metrics"
	"com.aviebrantz.pricetracker/pkg/storage"
	"github.com/apex/log"
	"gocloud.dev/pubsub"
	"golang.org/x/sync/errgroup"

	_ "gocloud.dev/pubsub/kafkapubsub"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfigFromFile(*configPath)
	if err != nil {
		log.Fatalf("could not load config :%v", err)
	}

	if err := logging.Setup(cfg.LogConfig, os.Stderr); err != nil {
		log.Fatalf("could not setup logging :%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := storage.Open(ctx, cfg.StorageConfig)
	if err != nil {
		log.Fatalf("could not open storage :%v", err)
	}
	defer stores.Close()

	cacheStore, err := openCache(ctx, cfg.CacheConfig)
	if err != nil {
		log.Fatalf("could not open cache :%v", err)
	}
	defer cacheStore.Close()

	aggregator := timeline.NewAggregator(stores.Wishlist, cfg.TimelineConfig.Resolution)
	catalogService := catalog.NewService(
		stores.Wishlist,
		stores.Products,
		stores.Sources,
		aggregator,
		cacheStore,
		cfg.CacheConfig.TTL,
	)
	apiServer := api.NewServer(catalogService, cfg.APIServerConfig, cfg.TimelineConfig)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(apiServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		return apiServer.Shutdown()
	})

	if cfg.MetricsConfig.Port > 0 {
		exporter, err := metrics.NewExporter(cfg.MetricsConfig.Namespace, cfg.MetricsConfig.Port)
		if err != nil {
			log.Fatalf("Failed to create the Prometheus stats exporter: %v", err)
		}
		g.Go(exporter.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return exporter.Shutdown(shutdownCtx)
		})
	}

	if cfg.IngestionConfig.Enabled {
		dataSub, err := pubsub.OpenSubscription(ctx, cfg.IngestionConfig.Subscription)
		if err != nil {
			log.Fatalf("could not open snapshot subscription :%v", err)
		}
		defer dataSub.Shutdown(context.Background())

		ingestor := snapshots.NewIngestor(dataSub, stores.Wishlist)
		g.Go(func() error {
			return ingestor.Start(gctx)
		})
	}

	log.Info("Server Started")
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server Stopped")
		return
	}
	log.Info("Server Stopped")
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	if cfg.Type == config.CacheRedis {
		return cache.NewRedisStore(ctx, cfg.URL, "pricetracker:")
	}
	return cache.NewMemoryStore(cfg.TTL), nil
}
