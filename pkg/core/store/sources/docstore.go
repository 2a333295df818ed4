package sources

import (
	"context"

	"gocloud.dev/docstore"
	"gocloud.dev/gcerrors"
)

type sourceDocStore struct {
	coll *docstore.Collection
}

// NewSourceDocStore create a source store using a goacloud.dev/docstore collection
func NewSourceDocStore(sourceColl *docstore.Collection) SourceStore {
	return &sourceDocStore{
		coll: sourceColl,
	}
}

func (s *sourceDocStore) GetSourceByID(ctx context.Context, id string) (*Source, error) {
	source := &Source{ID: id}
	err := s.coll.Get(ctx, source)
	if err != nil {
		code := gcerrors.Code(err)
		if code == gcerrors.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return source, nil
}

func (s *sourceDocStore) CreateSource(ctx context.Context, source *Source) error {
	return s.coll.Put(ctx, source)
}
