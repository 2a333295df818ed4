package sources

import (
	"context"

	"github.com/nqd/flat"
	bolt "go.etcd.io/bbolt"
)

type sourceLocalStore struct {
	db *bolt.DB
}

const sourceBucketPrefix = "source_"

func NewSourceLocalStore(db *bolt.DB) SourceStore {
	return &sourceLocalStore{
		db: db,
	}
}

func (s *sourceLocalStore) GetSourceByID(ctx context.Context, id string) (*Source, error) {
	source := &Source{}
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket([]byte(sourceBucketPrefix + id))
		if buck == nil {
			source = nil
			return nil
		}

		data := make(map[string]interface{})
		cur := buck.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			data[string(k)] = string(v)
		}

		nestedData, err := flat.Unflatten(data, &flat.Options{
			Delimiter: "/",
		})
		if err != nil {
			return err
		}

		source.ID = id
		if value, ok := nestedData["name"].(string); ok {
			source.Name = value
		}
		if value, ok := nestedData["url"].(string); ok {
			source.URL = value
		}
		return nil
	})
	return source, err
}

func (s *sourceLocalStore) CreateSource(ctx context.Context, source *Source) error {
	data := map[string]string{
		"id":   source.ID,
		"name": source.Name,
		"url":  source.URL,
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		buck, err := tx.CreateBucketIfNotExists([]byte(sourceBucketPrefix + source.ID))
		if err != nil {
			return err
		}
		for k, v := range data {
			if err := buck.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}
