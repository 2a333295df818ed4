package wishlist

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

type localWishlistStore struct {
	db *bolt.DB
}

var wishlistBucket = []byte("wishlist")

// NewWishlistLocalStore keeps wishlists in a single bolt bucket keyed by
// big-endian timestamp, so cursor order is time order.
func NewWishlistLocalStore(db *bolt.DB) Store {
	return &localWishlistStore{
		db: db,
	}
}

func timestampKey(ts int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(ts))
	return key
}

func decodeWishlist(v []byte) (*Wishlist, error) {
	w := &Wishlist{}
	if err := json.Unmarshal(v, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *localWishlistStore) LastWishlist(ctx context.Context) (*Wishlist, error) {
	var w *Wishlist
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(wishlistBucket)
		if buck == nil {
			return nil
		}
		k, v := buck.Cursor().Last()
		if k == nil {
			return nil
		}
		var err error
		w, err = decodeWishlist(v)
		if err != nil {
			return err
		}
		w.ID = strconv.FormatInt(int64(binary.BigEndian.Uint64(k)), 10)
		return nil
	})
	return w, err
}

func (s *localWishlistStore) SnapshotsInRange(ctx context.Context, start, end int64) ([]Snapshot, error) {
	snapshots := make([]Snapshot, 0)
	if start < 0 {
		start = 0
	}
	if end < start {
		return snapshots, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(wishlistBucket)
		if buck == nil {
			return nil
		}

		c := buck.Cursor()
		for k, v := c.Seek(timestampKey(start)); k != nil; k, v = c.Next() {
			if int64(binary.BigEndian.Uint64(k)) > end {
				break
			}
			w, err := decodeWishlist(v)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, w.Snapshot())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (s *localWishlistStore) LatestSnapshotAt(ctx context.Context, ts int64) (*Snapshot, error) {
	if ts < 0 {
		return nil, nil
	}

	var snapshot *Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(wishlistBucket)
		if buck == nil {
			return nil
		}

		c := buck.Cursor()
		k, v := c.Seek(timestampKey(ts + 1))
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		if k == nil {
			return nil
		}

		w, err := decodeWishlist(v)
		if err != nil {
			return err
		}
		found := w.Snapshot()
		snapshot = &found
		return nil
	})
	return snapshot, err
}

func (s *localWishlistStore) InsertWishlist(ctx context.Context, w *Wishlist) error {
	value, err := json.Marshal(w)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		buck, err := tx.CreateBucketIfNotExists(wishlistBucket)
		if err != nil {
			return err
		}
		return buck.Put(timestampKey(w.Timestamp), value)
	})
}
