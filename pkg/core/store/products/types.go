package products

import (
	"context"

	"com.aviebrantz.pricetracker/pkg/core/store/sources"
)

type ProductStore interface {
	GetProductByID(ctx context.Context, id string) (*Product, error)
	// NewestProducts lists up to limit products, most recently first seen first.
	NewestProducts(ctx context.Context, limit int) ([]*Product, error)
	// ProductsByLastSeen lists every product, most recently seen first.
	ProductsByLastSeen(ctx context.Context) ([]*Product, error)
	UpsertProduct(ctx context.Context, p *Product) error
}

type Product struct {
	ID        string          `json:"-" docstore:"id" mapstructure:"id"`
	Name      string          `json:"name" docstore:"name" mapstructure:"name"`
	Price     float64         `json:"price" docstore:"price" mapstructure:"price"`
	Quantity  int             `json:"quantity" docstore:"quantity" mapstructure:"quantity"`
	Stars     float64         `json:"stars" docstore:"stars" mapstructure:"stars"`
	URL       string          `json:"url" docstore:"url" mapstructure:"url"`
	ImageURL  string          `json:"url_img" docstore:"url_img" mapstructure:"url_img"`
	ItemID    string          `json:"-" docstore:"item_id" mapstructure:"item_id"`
	FirstSeen int64           `json:"first_seen" docstore:"first_seen" mapstructure:"first_seen"`
	LastSeen  int64           `json:"last_seen" docstore:"last_seen" mapstructure:"last_seen"`
	SourceID  string          `json:"-" docstore:"source" mapstructure:"-"`
	Source    *sources.Source `json:"source,omitempty" docstore:"-" mapstructure:"source"`
}

// Value is the amount the product weighs in a wishlist total.
func (p *Product) Value() float64 {
	return p.Price * float64(p.Quantity)
}
