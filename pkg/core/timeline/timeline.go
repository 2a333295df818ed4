package timeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"com.aviebrantz.pricetracker/pkg/core/store/wishlist"
)

var (
	// ErrInvalidResolution is returned when the bucket width is not positive.
	ErrInvalidResolution = errors.New("timeline: resolution must be positive")
	// ErrSnapshotsUnavailable wraps any failure reading from the snapshot source.
	ErrSnapshotsUnavailable = errors.New("timeline: snapshots unavailable")
)

// SnapshotSource is the read side of the wishlist history.
type SnapshotSource interface {
	SnapshotsInRange(ctx context.Context, start, end int64) ([]wishlist.Snapshot, error)
	LatestSnapshotAt(ctx context.Context, ts int64) (*wishlist.Snapshot, error)
}

// Datapoint is the wishlist value at the right edge of one bucket.
type Datapoint struct {
	Slice int64   `json:"slice"`
	Value float64 `json:"value"`
}

// Window describes one timeline request. All values are unix seconds except Count.
type Window struct {
	From       int64
	Count      int
	Resolution int64
	Now        int64
}

// Bounds returns the first and last bucket boundaries covered by the window.
func (w Window) Bounds() (minTime, maxTime int64) {
	if w.Resolution <= 0 {
		return w.From, w.From
	}
	minTime = floorTo(w.From, w.Resolution)
	maxTime = floorTo(w.Now, w.Resolution)
	if w.Count > 0 {
		if byCount := minTime + w.Resolution*int64(w.Count); byCount < maxTime {
			maxTime = byCount
		}
	}
	if maxTime < minTime {
		maxTime = minTime
	}
	return minTime, maxTime
}

// Compute builds the wishlist value series for w. Each output slice is the
// right edge of the bucket [slice-Resolution, slice) and carries the rounded
// mean of the snapshots in it. Empty buckets repeat the previous slice, or
// zero when nothing precedes them.
func Compute(ctx context.Context, source SnapshotSource, w Window) ([]Datapoint, error) {
	if w.Resolution <= 0 {
		return nil, ErrInvalidResolution
	}

	minTime, maxTime := w.Bounds()
	snapshots, err := source.SnapshotsInRange(ctx, minTime, maxTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotsUnavailable, err)
	}

	if len(snapshots) == 0 {
		return fallback(ctx, source, w.From, maxTime)
	}

	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, s := range snapshots {
		slice := floorTo(s.Timestamp, w.Resolution) + w.Resolution
		if slice > maxTime {
			slice = maxTime
		}
		sums[slice] += s.Value
		counts[slice]++
	}

	points := make([]Datapoint, 0, (maxTime-minTime)/w.Resolution)
	last := 0.0
	for slice := minTime + w.Resolution; slice <= maxTime; slice += w.Resolution {
		if n, ok := counts[slice]; ok {
			last = math.Round(sums[slice] / float64(n))
		}
		points = append(points, Datapoint{Slice: slice, Value: last})
	}
	return points, nil
}

func fallback(ctx context.Context, source SnapshotSource, from, maxTime int64) ([]Datapoint, error) {
	prev, err := source.LatestSnapshotAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotsUnavailable, err)
	}
	if prev == nil {
		return []Datapoint{}, nil
	}
	return []Datapoint{
		{Slice: from, Value: prev.Value},
		{Slice: maxTime, Value: prev.Value},
	}, nil
}

func floorTo(ts, resolution int64) int64 {
	q := ts / resolution
	if ts < 0 && ts%resolution != 0 {
		q--
	}
	return q * resolution
}

// Aggregator binds a snapshot source to a fixed resolution and clock.
type Aggregator struct {
	source     SnapshotSource
	resolution time.Duration
	now        func() time.Time
}

// NewAggregator uses the wall clock; see WithClock.
func NewAggregator(source SnapshotSource, resolution time.Duration) *Aggregator {
	return &Aggregator{
		source:     source,
		resolution: resolution,
		now:        time.Now,
	}
}

// WithClock replaces the time source, mostly for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) Resolution() int64 {
	return int64(a.resolution / time.Second)
}

// Compute runs Compute over count buckets starting at from, up to now.
func (a *Aggregator) Compute(ctx context.Context, from int64, count int) ([]Datapoint, error) {
	return Compute(ctx, a.source, Window{
		From:       from,
		Count:      count,
		Resolution: a.Resolution(),
		Now:        a.now().Unix(),
	})
}
