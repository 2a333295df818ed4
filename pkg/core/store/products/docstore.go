package products

import (
	"context"
	"io"

	"gocloud.dev/docstore"
	"gocloud.dev/gcerrors"
)

type productDocStore struct {
	coll *docstore.Collection
}

// NewProductDocStore create a product store using a goacloud.dev/docstore collection
func NewProductDocStore(coll *docstore.Collection) ProductStore {
	return &productDocStore{
		coll: coll,
	}
}

func (s *productDocStore) GetProductByID(ctx context.Context, id string) (*Product, error) {
	product := &Product{ID: id}
	err := s.coll.Get(ctx, product)
	if err != nil {
		code := gcerrors.Code(err)
		if code == gcerrors.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

func (s *productDocStore) NewestProducts(ctx context.Context, limit int) ([]*Product, error) {
	iter := s.coll.
		Query().
		OrderBy("first_seen", docstore.Descending).
		Get(ctx)
	defer iter.Stop()
	return collect(ctx, iter, limit)
}

func (s *productDocStore) ProductsByLastSeen(ctx context.Context) ([]*Product, error) {
	iter := s.coll.
		Query().
		OrderBy("last_seen", docstore.Descending).
		Get(ctx)
	defer iter.Stop()
	return collect(ctx, iter, 0)
}

func (s *productDocStore) UpsertProduct(ctx context.Context, p *Product) error {
	return s.coll.Put(ctx, p)
}

// collect reads at most limit products, or all of them when limit <= 0.
// The limit is not pushed into the query since memdocstore would apply it
// before ordering.
func collect(ctx context.Context, iter *docstore.DocumentIterator, limit int) ([]*Product, error) {
	list := make([]*Product, 0)
	for limit <= 0 || len(list) < limit {
		product := &Product{}
		err := iter.Next(ctx, product)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		list = append(list, product)
	}
	return list, nil
}
