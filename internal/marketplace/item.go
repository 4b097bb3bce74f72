// Package marketplace renders the script catalog page by page and keeps
// each user's selection of scripts in sync with what they see.
package marketplace

import (
	"context"
	"time"

	"github.com/AlekSi/pointer"
)

// CatalogItem is a published script.
type CatalogItem struct {
	// ID is nil until the item has been saved.
	ID        *int64
	Name      string
	Author    string
	Content   []byte
	CreatedAt time.Time
}

// Saved reports whether the item has a store identity.
func (i CatalogItem) Saved() bool {
	return pointer.GetInt64(i.ID) != 0
}

// Catalog is the store of published scripts. FindAll returns items in
// their natural order, which paging preserves.
type Catalog interface {
	FindAll(ctx context.Context) ([]CatalogItem, error)
	FindByName(ctx context.Context, name string) (CatalogItem, error)
	Save(ctx context.Context, item CatalogItem) (CatalogItem, error)
	Delete(ctx context.Context, item CatalogItem) error
}
