package wishlist

import (
	"context"
	"io"
	"strconv"

	"gocloud.dev/docstore"
)

type wishlistDocStore struct {
	coll *docstore.Collection
}

// NewWishlistDocStore create a wishlist store using a goacloud.dev/docstore collection
// keyed by "id".
func NewWishlistDocStore(coll *docstore.Collection) Store {
	return &wishlistDocStore{
		coll: coll,
	}
}

// LastWishlist and LatestSnapshotAt take the first ordered result instead of
// using Limit: memdocstore applies the limit before sorting.
func (s *wishlistDocStore) LastWishlist(ctx context.Context) (*Wishlist, error) {
	iter := s.coll.
		Query().
		OrderBy("timestamp", docstore.Descending).
		Get(ctx)
	defer iter.Stop()

	w := &Wishlist{}
	err := iter.Next(ctx, w)
	if err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *wishlistDocStore) SnapshotsInRange(ctx context.Context, start, end int64) ([]Snapshot, error) {
	iter := s.coll.
		Query().
		Where("timestamp", ">=", start).
		Where("timestamp", "<=", end).
		OrderBy("timestamp", docstore.Ascending).
		Get(ctx, "id", "timestamp", "value")
	defer iter.Stop()

	snapshots := make([]Snapshot, 0)
	for {
		w := &Wishlist{}
		err := iter.Next(ctx, w)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, w.Snapshot())
	}
	return snapshots, nil
}

func (s *wishlistDocStore) LatestSnapshotAt(ctx context.Context, ts int64) (*Snapshot, error) {
	iter := s.coll.
		Query().
		Where("timestamp", "<=", ts).
		OrderBy("timestamp", docstore.Descending).
		Get(ctx, "id", "timestamp", "value")
	defer iter.Stop()

	w := &Wishlist{}
	err := iter.Next(ctx, w)
	if err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	snapshot := w.Snapshot()
	return &snapshot, nil
}

func (s *wishlistDocStore) InsertWishlist(ctx context.Context, w *Wishlist) error {
	if w.ID == "" {
		w.ID = strconv.FormatInt(w.Timestamp, 10)
	}
	if w.Products == nil {
		w.Products = []string{}
	}
	return s.coll.Put(ctx, w)
}
