package menu

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("menu item not found")

// Repository defines all database operations for the menu
type Repository interface {

	// -------------------------------
	// Catalog
	// -------------------------------

	ListCategories(ctx context.Context) ([]Category, error)
	ListItems(ctx context.Context, availableOnly bool) ([]Item, error)
	GetItem(ctx context.Context, itemID string) (*Item, error)
	CreateCategory(ctx context.Context, cat *Category) error
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID string) error
	SetItemImage(ctx context.Context, itemID, imageURL string) error

	// -------------------------------
	// Variants
	// -------------------------------

	ListVariants(ctx context.Context, itemID string) ([]Variant, error)
	CreateVariant(ctx context.Context, v *Variant) error
	DeleteVariant(ctx context.Context, variantID string) error
	GetVariant(ctx context.Context, itemID, variantName string) (*Variant, error)

	// -------------------------------
	// Stock
	// -------------------------------

	SetItemStock(ctx context.Context, itemID, status string, outUntil *time.Time) error
	SetVariantStock(ctx context.Context, itemID, variantName, status string, outUntil *time.Time) error
}
