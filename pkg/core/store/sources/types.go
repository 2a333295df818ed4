package sources

import (
	"context"
)

type SourceStore interface {
	GetSourceByID(ctx context.Context, id string) (*Source, error)
	CreateSource(ctx context.Context, source *Source) error
}

// Source is a shop products are scraped from.
type Source struct {
	ID   string `json:"-" docstore:"id" mapstructure:"id"`
	Name string `json:"name" docstore:"name" mapstructure:"name"`
	URL  string `json:"url" docstore:"url" mapstructure:"url"`
}
