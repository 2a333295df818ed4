package products_test

import (
	"context"
	"path/filepath"
	"testing"

	"com.aviebrantz.pricetracker/pkg/core/store/products"
	"com.aviebrantz.pricetracker/pkg/core/store/sources"
	bolt "go.etcd.io/bbolt"
	"gocloud.dev/docstore/memdocstore"
)

func forEachStore(t *testing.T, fn func(t *testing.T, store products.ProductStore)) {
	t.Run("docstore", func(t *testing.T) {
		coll, err := memdocstore.OpenCollection("id", nil)
		if err != nil {
			t.Fatalf("open collection: %v", err)
		}
		defer coll.Close()
		fn(t, products.NewProductDocStore(coll))
	})
	t.Run("local", func(t *testing.T) {
		db, err := bolt.Open(filepath.Join(t.TempDir(), "products.db"), 0600, nil)
		if err != nil {
			t.Fatalf("open bolt: %v", err)
		}
		defer db.Close()
		fn(t, products.NewProductLocalStore(db))
	})
}

func seed(t *testing.T, store products.ProductStore, list ...*products.Product) {
	t.Helper()
	for _, p := range list {
		if err := store.UpsertProduct(context.Background(), p); err != nil {
			t.Fatalf("upsert %s: %v", p.ID, err)
		}
	}
}

func ids(list []*products.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGetProductByID(t *testing.T) {
	forEachStore(t, func(t *testing.T, store products.ProductStore) {
		seed(t, store, &products.Product{
			ID:        "p1",
			Name:      "Keyboard",
			Price:     49.9,
			Quantity:  2,
			Stars:     4.5,
			URL:       "https://shop.example/p1",
			ImageURL:  "https://shop.example/p1.png",
			ItemID:    "K-1",
			FirstSeen: 1600000000,
			LastSeen:  1600003600,
			SourceID:  "shop",
		})
		ctx := context.Background()

		got, err := store.GetProductByID(ctx, "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Fatalf("product not found")
		}
		if got.Name != "Keyboard" || got.Price != 49.9 || got.Quantity != 2 || got.Stars != 4.5 {
			t.Fatalf("unexpected product: %+v", got)
		}
		if got.FirstSeen != 1600000000 || got.LastSeen != 1600003600 || got.SourceID != "shop" {
			t.Fatalf("unexpected product: %+v", got)
		}
		if got.Value() != 99.8 {
			t.Fatalf("expected value 99.8, got %v", got.Value())
		}

		missing, err := store.GetProductByID(ctx, "nope")
		if err != nil || missing != nil {
			t.Fatalf("expected nil for unknown product, got %+v, %v", missing, err)
		}
	})
}

func TestProductOrdering(t *testing.T) {
	forEachStore(t, func(t *testing.T, store products.ProductStore) {
		seed(t, store,
			&products.Product{ID: "a", FirstSeen: 100, LastSeen: 900},
			&products.Product{ID: "b", FirstSeen: 300, LastSeen: 400},
			&products.Product{ID: "c", FirstSeen: 200, LastSeen: 700},
		)
		ctx := context.Background()

		newest, err := store.NewestProducts(ctx, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ids(newest); !equalIDs(got, []string{"b", "c"}) {
			t.Fatalf("unexpected newest order: %v", got)
		}

		byLastSeen, err := store.ProductsByLastSeen(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ids(byLastSeen); !equalIDs(got, []string{"a", "c", "b"}) {
			t.Fatalf("unexpected last seen order: %v", got)
		}
	})
}

func TestLocalStoreKeepsEmbeddedSource(t *testing.T) {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "products.db"), 0600, nil)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	defer db.Close()
	store := products.NewProductLocalStore(db)
	ctx := context.Background()

	seed(t, store, &products.Product{
		ID:     "p1",
		Name:   "Mouse",
		Source: &sources.Source{ID: "shop", Name: "Shop", URL: "https://shop.example"},
	})

	got, err := store.GetProductByID(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SourceID != "shop" {
		t.Fatalf("expected source id shop, got %q", got.SourceID)
	}
	if got.Source == nil || got.Source.Name != "Shop" || got.Source.URL != "https://shop.example" {
		t.Fatalf("unexpected source: %+v", got.Source)
	}
}

func TestNewestProductsIgnoresInsertOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, store products.ProductStore) {
		seed(t, store,
			&products.Product{ID: "d", FirstSeen: 150},
			&products.Product{ID: "a", FirstSeen: 100},
			&products.Product{ID: "f", FirstSeen: 600},
			&products.Product{ID: "b", FirstSeen: 300},
			&products.Product{ID: "e", FirstSeen: 500},
			&products.Product{ID: "c", FirstSeen: 200},
		)
		ctx := context.Background()

		for i := 0; i < 50; i++ {
			newest, err := store.NewestProducts(ctx, 3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ids(newest); !equalIDs(got, []string{"f", "e", "b"}) {
				t.Fatalf("run %d: unexpected newest order: %v", i, got)
			}
		}
	})
}
