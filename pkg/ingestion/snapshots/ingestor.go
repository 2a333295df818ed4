package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"com.aviebrantz.pricetracker/pkg/core/store/wishlist"
	"com.aviebrantz.pricetracker/pkg/metrics"
	"github.com/apex/log"
	"github.com/fxamacker/cbor/v2"
	"gocloud.dev/pubsub"
)

const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

var errMissingTimestamp = errors.New("snapshot has no timestamp")

// ErrSnapshotNotRecorded stops the ingestor when a snapshot could not be
// stored and the subscription cannot redeliver it with Nack. The message is
// left unacknowledged so the consumer group picks it up again on restart.
var ErrSnapshotNotRecorded = errors.New("snapshot not recorded")

// SnapshotIngestor records wishlist snapshots published by the scraper.
// Message metadata "format" selects the body encoding (json by default) and
// an optional "time" overrides the body timestamp.
type SnapshotIngestor struct {
	dataSub *pubsub.Subscription
	store   wishlist.Store
	logger  *log.Entry
}

func NewIngestor(dataSub *pubsub.Subscription, store wishlist.Store) *SnapshotIngestor {
	logger := log.WithField("module", "snapshot-ingestor")
	return &SnapshotIngestor{
		dataSub: dataSub,
		store:   store,
		logger:  logger,
	}
}

// Start receives until ctx is done or the subscription fails.
func (si *SnapshotIngestor) Start(ctx context.Context) error {
	for {
		msg, err := si.dataSub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			si.logger.Warnf("err receiving message: %v", err)
			return err
		}

		w, err := decodeSnapshot(msg)
		if err != nil {
			si.logger.Warnf("Invalid msg format :%v", err)
			metrics.RecordSnapshotIngested("invalid")
			// Drop msg
			msg.Ack()
			continue
		}

		si.logger.Infof("Got snapshot: %d - %v - %d products", w.Timestamp, w.Value, len(w.Products))

		err = si.store.InsertWishlist(ctx, w)
		if err != nil {
			si.logger.Errorf("err insert wishlist snapshot :%v", err)
			metrics.RecordSnapshotIngested("error")
			if !msg.Nackable() {
				return fmt.Errorf("%w at %d: %w", ErrSnapshotNotRecorded, w.Timestamp, err)
			}
			msg.Nack()
			continue
		}

		metrics.RecordSnapshotIngested("ok")
		// Messages must always be acknowledged with Ack.
		msg.Ack()
	}
}

func decodeSnapshot(msg *pubsub.Message) (*wishlist.Wishlist, error) {
	w := &wishlist.Wishlist{}
	var err error
	switch msg.Metadata["format"] {
	case FormatCBOR:
		err = cbor.Unmarshal(msg.Body, w)
	default:
		err = json.Unmarshal(msg.Body, w)
	}
	if err != nil {
		return nil, err
	}

	if t, ok := msg.Metadata["time"]; ok {
		ts, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, err
		}
		w.Timestamp = ts
	}
	if w.Timestamp <= 0 {
		return nil, errMissingTimestamp
	}
	if w.Products == nil {
		w.Products = []string{}
	}
	return w, nil
}
