package api

import (
	"strconv"
	"time"

	"com.aviebrantz.pricetracker/pkg/config"
	"com.aviebrantz.pricetracker/pkg/core/catalog"
)

// timelineParams normalizes the query of /api/wishlist/values. A missing,
// malformed or negative start falls back to now minus the default span, and
// is then aligned down to resolution. A count outside (0, MaxCount] falls
// back to DefaultCount.
func timelineParams(fromStr, countStr string, now time.Time, resolution int64, cfg config.TimelineConfig) (int64, int) {
	from, err := strconv.ParseInt(fromStr, 10, 64)
	if err != nil || from < 0 {
		from = now.Unix() - int64(cfg.DefaultSpan/time.Second)
	}
	if resolution > 0 {
		from = from / resolution * resolution
	}

	count, err := strconv.Atoi(countStr)
	if err != nil || count <= 0 || count > cfg.MaxCount {
		count = cfg.DefaultCount
	}
	return from, count
}

func archiveParams(pageStr, perPageStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(perPageStr)
	if err != nil || perPage < catalog.MinItemsPerPage {
		perPage = catalog.MinItemsPerPage
	}
	return page, perPage
}
