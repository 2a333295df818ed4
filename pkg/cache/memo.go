package cache

import (
	"context"
	"encoding/json"
	"time"

	"com.aviebrantz.pricetracker/pkg/metrics"
	"github.com/apex/log"
	"golang.org/x/sync/singleflight"
)

// Memo memoizes the results of a loader function in a Store for ttl.
// Concurrent misses on the same key share a single call. Errors are
// returned to every waiter and never stored.
type Memo[T any] struct {
	name   string
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *log.Entry
}

func NewMemo[T any](name string, store Store, ttl time.Duration) *Memo[T] {
	return &Memo[T]{
		name:   name,
		store:  store,
		ttl:    ttl,
		logger: log.WithFields(log.Fields{"module": "memo", "cache": name}),
	}
}

func (m *Memo[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.WithError(err).Warnf("cache read failed for '%s'", key)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			m.logger.Debugf("Cache hit for '%s'", key)
			metrics.RecordCacheLookup(m.name, true)
			return v, nil
		}
		m.logger.Warnf("dropping undecodable cache entry '%s'", key)
	}

	m.logger.Debugf("Cache miss for '%s'", key)
	metrics.RecordCacheLookup(m.name, false)

	// The shared load outlives the caller that started it: other waiters
	// may still need the result after that caller is cancelled.
	loadCtx := context.WithoutCancel(ctx)
	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := m.store.Set(loadCtx, key, encoded, m.ttl); err != nil {
			m.logger.WithError(err).Warnf("cache write failed for '%s'", key)
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}
