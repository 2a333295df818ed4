package wishlist

import (
	"context"
)

// Store reads and records wishlist snapshots.
type Store interface {
	LastWishlist(ctx context.Context) (*Wishlist, error)
	// SnapshotsInRange returns snapshots with start <= timestamp <= end, oldest first.
	SnapshotsInRange(ctx context.Context, start, end int64) ([]Snapshot, error)
	// LatestSnapshotAt returns the newest snapshot with timestamp <= ts, or nil.
	LatestSnapshotAt(ctx context.Context, ts int64) (*Snapshot, error)
	InsertWishlist(ctx context.Context, w *Wishlist) error
}

// Wishlist is the set of tracked products at one point in time. Value is the
// sum of price*quantity over Products, computed by the scraper.
type Wishlist struct {
	ID        string   `json:"-" docstore:"id"`
	Timestamp int64    `json:"timestamp" docstore:"timestamp" cbor:"timestamp"`
	Value     float64  `json:"value" docstore:"value" cbor:"value"`
	Products  []string `json:"products" docstore:"products" cbor:"products"`
}

type Snapshot struct {
	Timestamp int64   `json:"timestamp" docstore:"timestamp"`
	Value     float64 `json:"value" docstore:"value"`
}

func (w *Wishlist) Snapshot() Snapshot {
	return Snapshot{Timestamp: w.Timestamp, Value: w.Value}
}
