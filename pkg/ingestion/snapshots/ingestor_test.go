package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"com.aviebrantz.pricetracker/pkg/core/store/wishlist"
	"github.com/fxamacker/cbor/v2"
	"gocloud.dev/docstore/memdocstore"
	"gocloud.dev/gcerrors"
	"gocloud.dev/pubsub"
	"gocloud.dev/pubsub/driver"
	"gocloud.dev/pubsub/mempubsub"
)

func TestDecodeSnapshot(t *testing.T) {
	jsonBody, _ := json.Marshal(map[string]interface{}{"timestamp": 3600, "value": 12.5, "products": []string{"a"}})
	cborBody, err := cbor.Marshal(wishlist.Wishlist{Timestamp: 7200, Value: 3, Products: []string{"b"}})
	if err != nil {
		t.Fatalf("cbor marshal: %v", err)
	}

	tests := []struct {
		name    string
		msg     *pubsub.Message
		want    int64
		wantErr bool
	}{
		{name: "json", msg: &pubsub.Message{Body: jsonBody}, want: 3600},
		{name: "cbor", msg: &pubsub.Message{Body: cborBody, Metadata: map[string]string{"format": FormatCBOR}}, want: 7200},
		{name: "time override", msg: &pubsub.Message{Body: jsonBody, Metadata: map[string]string{"time": "9000"}}, want: 9000},
		{name: "bad time", msg: &pubsub.Message{Body: jsonBody, Metadata: map[string]string{"time": "soon"}}, wantErr: true},
		{name: "garbage", msg: &pubsub.Message{Body: []byte("{")}, wantErr: true},
		{name: "no timestamp", msg: &pubsub.Message{Body: []byte(`{"value": 1}`)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := decodeSnapshot(tt.msg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", w)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Timestamp != tt.want || w.Products == nil {
				t.Fatalf("unexpected snapshot: %+v", w)
			}
		})
	}
}

func TestIngestorRecordsSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := mempubsub.NewTopic()
	defer topic.Shutdown(context.Background())
	sub := mempubsub.NewSubscription(topic, time.Second)
	defer sub.Shutdown(context.Background())

	coll, err := memdocstore.OpenCollection("id", nil)
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}
	defer coll.Close()
	store := wishlist.NewWishlistDocStore(coll)

	done := make(chan error, 1)
	go func() {
		done <- NewIngestor(sub, store).Start(ctx)
	}()

	send := func(body string) {
		if err := topic.Send(ctx, &pubsub.Message{Body: []byte(body)}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	send(`not json`)
	send(`{"timestamp": 3600, "value": 10, "products": ["a"]}`)
	send(`{"timestamp": 7200, "value": 20, "products": ["a", "b"]}`)

	deadline := time.Now().Add(5 * time.Second)
	for {
		snapshots, err := store.SnapshotsInRange(ctx, 0, 10000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snapshots) == 2 {
			if snapshots[0].Timestamp != 3600 || snapshots[1].Value != 20 {
				t.Fatalf("unexpected snapshots: %+v", snapshots)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshots were not recorded, got %+v", snapshots)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ingestor did not stop")
	}
}

// atMostOnceSubscription is a driver that cannot redeliver, like kafkapubsub.
type atMostOnceSubscription struct {
	msgs chan *driver.Message
}

func (s *atMostOnceSubscription) ReceiveBatch(ctx context.Context, maxMessages int) ([]*driver.Message, error) {
	select {
	case m := <-s.msgs:
		return []*driver.Message{m}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *atMostOnceSubscription) SendAcks(ctx context.Context, ackIDs []driver.AckID) error {
	return nil
}

func (s *atMostOnceSubscription) CanNack() bool { return false }

func (s *atMostOnceSubscription) SendNacks(ctx context.Context, ackIDs []driver.AckID) error {
	return errors.New("nack not supported")
}

func (s *atMostOnceSubscription) IsRetryable(err error) bool { return false }
func (s *atMostOnceSubscription) As(i interface{}) bool { return false }
func (s *atMostOnceSubscription) ErrorAs(err error, i interface{}) bool { return false }
func (s *atMostOnceSubscription) ErrorCode(err error) gcerrors.ErrorCode {
	return gcerrors.Unknown
}
func (s *atMostOnceSubscription) Close() error { return nil }

type failingStore struct {
	wishlist.Store
	err error
}

func (s *failingStore) InsertWishlist(ctx context.Context, w *wishlist.Wishlist) error {
	return s.err
}

func TestIngestorStopsWhenStoreFailsWithoutNack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ds := &atMostOnceSubscription{msgs: make(chan *driver.Message, 1)}
	ds.msgs <- &driver.Message{
		Body:   []byte(`{"timestamp": 3600, "value": 10}`),
		AckID:  1,
		AsFunc: func(interface{}) bool { return false },
	}
	sub := pubsub.NewSubscription(ds, nil, nil)
	defer sub.Shutdown(context.Background())

	storeErr := errors.New("mongo unavailable")
	err := NewIngestor(sub, &failingStore{err: storeErr}).Start(ctx)
	if !errors.Is(err, ErrSnapshotNotRecorded) || !errors.Is(err, storeErr) {
		t.Fatalf("expected the store error to stop ingestion, got %v", err)
	}
}
