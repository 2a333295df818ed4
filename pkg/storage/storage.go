package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"com.aviebrantz.pricetracker/pkg/config"
	"com.aviebrantz.pricetracker/pkg/core/store/products"
	"com.aviebrantz.pricetracker/pkg/core/store/sources"
	"com.aviebrantz.pricetracker/pkg/core/store/wishlist"
	"github.com/apex/log"
	bolt "go.etcd.io/bbolt"
	"gocloud.dev/docstore"

	_ "gocloud.dev/docstore/memdocstore"
	_ "gocloud.dev/docstore/mongodocstore"
)

const (
	wishlistCollection = "wishlist"
	productCollection  = "product"
	sourceCollection   = "source"
)

// Stores holds the open data handles. Close releases them.
type Stores struct {
	Wishlist wishlist.Store
	Products products.ProductStore
	Sources  sources.SourceStore

	closers []func() error
}

func (s *Stores) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Open connects to the store selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	logger := log.WithFields(log.Fields{"module": "storage", "type": cfg.Type})

	switch cfg.Type {
	case config.StorageLocal:
		db, err := bolt.Open(cfg.URL, 0600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, fmt.Errorf("open bolt file %s: %w", cfg.URL, err)
		}
		logger.Infof("Opened local store %s", cfg.URL)
		return &Stores{
			Wishlist: wishlist.NewWishlistLocalStore(db),
			Products: products.NewProductLocalStore(db),
			Sources:  sources.NewSourceLocalStore(db),
			closers:  []func() error{db.Close},
		}, nil

	case config.StorageMongo, config.StorageMem:
		if cfg.Type == config.StorageMongo {
			os.Setenv("MONGO_SERVER_URL", cfg.URL)
		}
		stores := &Stores{}
		colls := make(map[string]*docstore.Collection)
		for _, name := range []string{wishlistCollection, productCollection, sourceCollection} {
			coll, err := docstore.OpenCollection(ctx, collectionURL(cfg, name))
			if err != nil {
				stores.Close()
				return nil, fmt.Errorf("could not open %s collection: %w", name, err)
			}
			colls[name] = coll
			stores.closers = append(stores.closers, coll.Close)
		}
		logger.Infof("Opened %s collections in %s", cfg.Type, cfg.Database)

		stores.Wishlist = wishlist.NewWishlistDocStore(colls[wishlistCollection])
		stores.Products = products.NewProductDocStore(colls[productCollection])
		stores.Sources = sources.NewSourceDocStore(colls[sourceCollection])
		return stores, nil
	}

	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

func collectionURL(cfg config.StorageConfig, name string) string {
	if cfg.Type == config.StorageMem {
		return fmt.Sprintf("mem://%s/id", name)
	}
	return fmt.Sprintf("mongo://%s/%s?id_field=id", cfg.Database, name)
}
