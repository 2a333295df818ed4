package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	MLatencyMs = stats.Float64("api/latency", "The latency in milliseconds per request", "ms")

	MRequests = stats.Int64("api/requests", "Number of requests", "1")

	MCacheLookups = stats.Int64("cache/lookups", "Number of memoized lookups", "1")

	MSnapshotsIngested = stats.Int64("ingestion/snapshots", "Number of wishlist snapshots recorded", "1")
)

var (
	KeyRoute, _  = tag.NewKey("route")
	KeyStatus, _ = tag.NewKey("status")
	KeyCache, _  = tag.NewKey("cache")
	KeyResult, _ = tag.NewKey("result")
)

var (
	LatencyView = &view.View{
		Name:        "api/latency",
		Measure:     MLatencyMs,
		Description: "The distribution of the latencies",

		Aggregation: view.Distribution(0, 5, 10, 25, 50, 75, 100, 200, 400, 800, 1600, 3200),
		TagKeys:     []tag.Key{KeyRoute},
	}

	RequestsCountView = &view.View{
		Name:        "api/requests",
		Measure:     MRequests,
		Description: "Number of requests",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyRoute, KeyStatus},
	}

	CacheLookupsView = &view.View{
		Name:        "cache/lookups",
		Measure:     MCacheLookups,
		Description: "Memoized lookups by cache and result",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyCache, KeyResult},
	}

	SnapshotsIngestedView = &view.View{
		Name:        "ingestion/snapshots",
		Measure:     MSnapshotsIngested,
		Description: "Wishlist snapshots recorded",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyResult},
	}
)

// RegisterViews makes every view in this package exportable.
func RegisterViews() error {
	return view.Register(LatencyView, RequestsCountView, CacheLookupsView, SnapshotsIngestedView)
}

func RecordRequest(route, status string, startTime time.Time) {
	ctx, err := tag.New(context.Background(),
		tag.Upsert(KeyRoute, route),
		tag.Upsert(KeyStatus, status),
	)
	if err != nil {
		return
	}
	stats.Record(ctx, MLatencyMs.M(sinceInMilliseconds(startTime)), MRequests.M(1))
}

func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ctx, err := tag.New(context.Background(),
		tag.Upsert(KeyCache, cache),
		tag.Upsert(KeyResult, result),
	)
	if err != nil {
		return
	}
	stats.Record(ctx, MCacheLookups.M(1))
}

func RecordSnapshotIngested(result string) {
	ctx, err := tag.New(context.Background(), tag.Upsert(KeyResult, result))
	if err != nil {
		return
	}
	stats.Record(ctx, MSnapshotsIngested.M(1))
}

func sinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}
