package products

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/jeremywohl/flatten"
	"github.com/mitchellh/mapstructure"
	"github.com/nqd/flat"
	bolt "go.etcd.io/bbolt"
)

// productLocalStore saves one bucket per product, with the document
// flattened into path-style keys.
type productLocalStore struct {
	db *bolt.DB
}

const productBucketPrefix = "product_"

func NewProductLocalStore(db *bolt.DB) ProductStore {
	return &productLocalStore{
		db: db,
	}
}

func productDoc(p *Product) map[string]interface{} {
	source := map[string]interface{}{"id": p.SourceID}
	if p.Source != nil {
		source["id"] = p.Source.ID
		source["name"] = p.Source.Name
		source["url"] = p.Source.URL
	}
	return map[string]interface{}{
		"id":         p.ID,
		"name":       p.Name,
		"price":      p.Price,
		"quantity":   p.Quantity,
		"stars":      p.Stars,
		"url":        p.URL,
		"url_img":    p.ImageURL,
		"item_id":    p.ItemID,
		"first_seen": p.FirstSeen,
		"last_seen":  p.LastSeen,
		"source":     source,
	}
}

func readProduct(buck *bolt.Bucket) (*Product, error) {
	data := make(map[string]interface{})
	cur := buck.Cursor()
	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		data[string(k)] = string(v)
	}

	nestedData, err := flat.Unflatten(data, &flat.Options{
		Delimiter: "/",
	})
	if err != nil {
		return nil, err
	}

	product := &Product{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           product,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(nestedData); err != nil {
		return nil, err
	}

	if product.Source != nil {
		product.SourceID = product.Source.ID
		if product.Source.Name == "" {
			product.Source = nil
		}
	}
	return product, nil
}

func (s *productLocalStore) GetProductByID(ctx context.Context, id string) (*Product, error) {
	var product *Product
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket([]byte(productBucketPrefix + id))
		if buck == nil {
			return nil
		}
		var err error
		product, err = readProduct(buck)
		return err
	})
	return product, err
}

func (s *productLocalStore) listProducts(less func(a, b *Product) bool) ([]*Product, error) {
	list := make([]*Product, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, buck *bolt.Bucket) error {
			if !strings.HasPrefix(string(name), productBucketPrefix) {
				return nil
			}
			product, err := readProduct(buck)
			if err != nil {
				log.WithField("module", "product-store").
					WithError(err).
					Warnf("skipping unreadable product %s", name)
				return nil
			}
			list = append(list, product)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return less(list[i], list[j])
	})
	return list, nil
}

func (s *productLocalStore) NewestProducts(ctx context.Context, limit int) ([]*Product, error) {
	list, err := s.listProducts(func(a, b *Product) bool {
		return a.FirstSeen > b.FirstSeen
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *productLocalStore) ProductsByLastSeen(ctx context.Context) ([]*Product, error) {
	return s.listProducts(func(a, b *Product) bool {
		return a.LastSeen > b.LastSeen
	})
}

func (s *productLocalStore) UpsertProduct(ctx context.Context, p *Product) error {
	flattenData, err := flatten.Flatten(productDoc(p), "", flatten.PathStyle)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		buck, err := tx.CreateBucketIfNotExists([]byte(productBucketPrefix + p.ID))
		if err != nil {
			return err
		}
		for k, v := range flattenData {
			value := fmt.Sprintf("%v", v)
			if err := buck.Put([]byte(k), []byte(value)); err != nil {
				return err
			}
		}
		return nil
	})
}
