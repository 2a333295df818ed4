package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
)

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	now := time.Unix(1000, 0)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("expected hit, got %q %v %v", v, ok, err)
	}

	now = now.Add(61 * time.Second)
	_, ok, _ = store.Get(ctx, "k")
	if ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoCachesValues(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	memo := NewMemo[[]int]("test", store, time.Minute)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := memo.Do(ctx, "key", load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 || got[2] != 3 {
			t.Fatalf("unexpected value: %v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 load, got %d", calls)
	}

	if _, err := memo.Do(ctx, "other", load); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a load per key, got %d", calls)
	}
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	memo := NewMemo[int]("test", store, time.Minute)
	ctx := context.Background()

	fail := errors.New("store down")
	calls := 0
	load := func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, fail
		}
		return 7, nil
	}

	if _, err := memo.Do(ctx, "key", load); !errors.Is(err, fail) {
		t.Fatalf("expected load error, got %v", err)
	}
	got, err := memo.Do(ctx, "key", load)
	if err != nil || got != 7 {
		t.Fatalf("expected 7 after retry, got %v %v", got, err)
	}
}

func TestMemoSharesConcurrentMisses(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	memo := NewMemo[string]("test", store, time.Minute)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "done", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := memo.Do(ctx, "key", load)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n < 1 || n > 2 {
		t.Fatalf("expected concurrent misses to share a load, got %d loads", n)
	}
	for i, v := range results {
		if v != "done" {
			t.Fatalf("result %d: got %q", i, v)
		}
	}
}

func TestMemoLogsHitsAndMisses(t *testing.T) {
	handler := memory.New()
	log.SetHandler(handler)
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(log.InfoLevel)

	store := NewMemoryStore(0)
	defer store.Close()
	memo := NewMemo[int]("logged", store, time.Minute)
	load := func(ctx context.Context) (int, error) { return 1, nil }

	memo.Do(context.Background(), "timeline_0_10", load)
	memo.Do(context.Background(), "timeline_0_10", load)

	var messages []string
	for _, e := range handler.Entries {
		messages = append(messages, e.Message)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 log entries, got %v", messages)
	}
	if messages[0] != "Cache miss for 'timeline_0_10'" || messages[1] != "Cache hit for 'timeline_0_10'" {
		t.Fatalf("unexpected log entries: %v", messages)
	}
}

func TestMemoLoadSurvivesCancelledCaller(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	memo := NewMemo[string]("test", store, time.Minute)

	started := make(chan struct{})
	var once sync.Once
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "done", nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := memo.Do(firstCtx, "key", load)
		firstErr <- err
	}()
	<-started

	waiter := make(chan string, 1)
	go func() {
		v, err := memo.Do(context.Background(), "key", load)
		if err != nil {
			t.Errorf("waiter got error: %v", err)
		}
		waiter <- v
	}()

	time.Sleep(50 * time.Millisecond)
	cancelFirst()
	close(release)

	if v := <-waiter; v != "done" {
		t.Fatalf("waiter got %q", v)
	}
	if err := <-firstErr; err != nil {
		t.Fatalf("first caller got error: %v", err)
	}

	got, err := memo.Do(context.Background(), "key", func(ctx context.Context) (string, error) {
		return "", errors.New("should have been cached")
	})
	if err != nil || got != "done" {
		t.Fatalf("expected cached value, got %q %v", got, err)
	}
}
