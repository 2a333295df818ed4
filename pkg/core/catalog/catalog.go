package catalog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"com.aviebrantz.pricetracker/pkg/cache"
	"com.aviebrantz.pricetracker/pkg/core/store/products"
	"com.aviebrantz.pricetracker/pkg/core/store/sources"
	"com.aviebrantz.pricetracker/pkg/core/store/wishlist"
	"com.aviebrantz.pricetracker/pkg/core/timeline"
	"github.com/apex/log"
)

const (
	NewestProductsLimit = 10
	MinItemsPerPage     = 5
)

// WishlistView is the last wishlist with its products resolved.
type WishlistView struct {
	Timestamp int64               `json:"timestamp"`
	Value     float64             `json:"value"`
	Products  []*products.Product `json:"products"`
}

// Service answers the read API on top of the stores. Every answer is
// memoized for the configured TTL.
type Service struct {
	wishlistStore wishlist.Store
	productStore  products.ProductStore
	sourceStore   sources.SourceStore
	aggregator    *timeline.Aggregator
	logger        *log.Entry

	lastWishlist   *cache.Memo[*WishlistView]
	newestProducts *cache.Memo[[]*products.Product]
	productArchive *cache.Memo[[]*products.Product]
	archiveSize    *cache.Memo[int]
	timelines      *cache.Memo[[]timeline.Datapoint]
}

func NewService(
	wishlistStore wishlist.Store,
	productStore products.ProductStore,
	sourceStore sources.SourceStore,
	aggregator *timeline.Aggregator,
	store cache.Store,
	ttl time.Duration,
) *Service {
	return &Service{
		wishlistStore:  wishlistStore,
		productStore:   productStore,
		sourceStore:    sourceStore,
		aggregator:     aggregator,
		logger:         log.WithField("module", "catalog"),
		lastWishlist:   cache.NewMemo[*WishlistView]("last_wishlist", store, ttl),
		newestProducts: cache.NewMemo[[]*products.Product]("newest_products", store, ttl),
		productArchive: cache.NewMemo[[]*products.Product]("product_archive", store, ttl),
		archiveSize:    cache.NewMemo[int]("archive_size", store, ttl),
		timelines:      cache.NewMemo[[]timeline.Datapoint]("timeline", store, ttl),
	}
}

// Resolution is the timeline bucket width in seconds.
func (s *Service) Resolution() int64 {
	return s.aggregator.Resolution()
}

// LastWishlist returns nil when nothing was recorded yet.
func (s *Service) LastWishlist(ctx context.Context) (*WishlistView, error) {
	return s.lastWishlist.Do(ctx, "last_wishlist", s.loadLastWishlist)
}

func (s *Service) loadLastWishlist(ctx context.Context) (*WishlistView, error) {
	w, err := s.wishlistStore.LastWishlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve last wishlist: %w", err)
	}
	if w == nil {
		return nil, nil
	}

	view := &WishlistView{
		Timestamp: w.Timestamp,
		Value:     w.Value,
		Products:  make([]*products.Product, 0, len(w.Products)),
	}
	sourceCache := make(map[string]*sources.Source)
	for _, id := range w.Products {
		p, err := s.productStore.GetProductByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("could not retrieve product %s: %w", id, err)
		}
		if p == nil {
			s.logger.Warnf("wishlist at %d references unknown product %s", w.Timestamp, id)
			continue
		}
		if err := s.populateSource(ctx, p, sourceCache); err != nil {
			return nil, err
		}
		view.Products = append(view.Products, p)
	}
	return view, nil
}

func (s *Service) NewestProducts(ctx context.Context) ([]*products.Product, error) {
	return s.newestProducts.Do(ctx, "newest_products", func(ctx context.Context) ([]*products.Product, error) {
		list, err := s.productStore.NewestProducts(ctx, NewestProductsLimit)
		if err != nil {
			return nil, fmt.Errorf("could not retrieve newest products: %w", err)
		}
		return list, s.populateSources(ctx, list)
	})
}

// ArchiveSize counts products that are not part of the last wishlist.
func (s *Service) ArchiveSize(ctx context.Context) (int, error) {
	return s.archiveSize.Do(ctx, "archive_size", func(ctx context.Context) (int, error) {
		archived, err := s.archivedProducts(ctx)
		if err != nil {
			return 0, err
		}
		return len(archived), nil
	})
}

// ArchivedProducts pages through products that dropped out of the last
// wishlist, most recently seen first. page starts at 1.
func (s *Service) ArchivedProducts(ctx context.Context, page, perPage int) ([]*products.Product, error) {
	if page < 1 {
		page = 1
	}
	if perPage < MinItemsPerPage {
		perPage = MinItemsPerPage
	}

	key := "product_archive_" + strconv.Itoa(page) + "_" + strconv.Itoa(perPage)
	return s.productArchive.Do(ctx, key, func(ctx context.Context) ([]*products.Product, error) {
		archived, err := s.archivedProducts(ctx)
		if err != nil {
			return nil, err
		}

		start := (page - 1) * perPage
		if start >= len(archived) {
			return []*products.Product{}, nil
		}
		end := start + perPage
		if end > len(archived) {
			end = len(archived)
		}
		list := archived[start:end]
		return list, s.populateSources(ctx, list)
	})
}

func (s *Service) archivedProducts(ctx context.Context) ([]*products.Product, error) {
	w, err := s.wishlistStore.LastWishlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve last wishlist: %w", err)
	}

	// Before the first wishlist every product counts as archived.
	current := make(map[string]struct{})
	if w != nil {
		for _, id := range w.Products {
			current[id] = struct{}{}
		}
	}

	all, err := s.productStore.ProductsByLastSeen(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve archived products: %w", err)
	}

	archived := make([]*products.Product, 0, len(all))
	for _, p := range all {
		if _, ok := current[p.ID]; !ok {
			archived = append(archived, p)
		}
	}
	return archived, nil
}

// Timeline returns the wishlist value series starting at from.
func (s *Service) Timeline(ctx context.Context, from int64, count int) ([]timeline.Datapoint, error) {
	key := "timeline_" + strconv.FormatInt(from, 10) + "_" + strconv.Itoa(count)
	return s.timelines.Do(ctx, key, func(ctx context.Context) ([]timeline.Datapoint, error) {
		return s.aggregator.Compute(ctx, from, count)
	})
}

func (s *Service) populateSources(ctx context.Context, list []*products.Product) error {
	sourceCache := make(map[string]*sources.Source)
	for _, p := range list {
		if err := s.populateSource(ctx, p, sourceCache); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) populateSource(ctx context.Context, p *products.Product, seen map[string]*sources.Source) error {
	if p.Source != nil || p.SourceID == "" {
		return nil
	}
	if source, ok := seen[p.SourceID]; ok {
		p.Source = source
		return nil
	}
	source, err := s.sourceStore.GetSourceByID(ctx, p.SourceID)
	if err != nil {
		return fmt.Errorf("could not retrieve source %s: %w", p.SourceID, err)
	}
	seen[p.SourceID] = source
	p.Source = source
	return nil
}
