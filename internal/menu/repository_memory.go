package menu

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository backs service and workflow tests.
type InMemoryRepository struct {
	categories map[string]*Category
	items      map[string]*Item
	variants   map[string]*Variant
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		categories: make(map[string]*Category),
		items:      make(map[string]*Item),
		variants:   make(map[string]*Variant),
	}
}

func (r *InMemoryRepository) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	for _, c := range r.categories {
		cats = append(cats, *c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].SortOrder < cats[j].SortOrder })
	return cats, nil
}

func (r *InMemoryRepository) ListItems(ctx context.Context, availableOnly bool) ([]Item, error) {
	var items []Item
	for _, it := range r.items {
		if availableOnly && !it.IsAvailable {
			continue
		}
		copied := *it
		variants, _ := r.ListVariants(ctx, it.ID)
		copied.Variants = variants
		items = append(items, copied)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *InMemoryRepository) GetItem(ctx context.Context, itemID string) (*Item, error) {
	it, ok := r.items[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *it
	variants, _ := r.ListVariants(ctx, itemID)
	copied.Variants = variants
	return &copied, nil
}

func (r *InMemoryRepository) CreateCategory(ctx context.Context, cat *Category) error {
	if cat.ID == "" {
		cat.ID = uuid.New().String()
	}
	copied := *cat
	r.categories[cat.ID] = &copied
	return nil
}

func (r *InMemoryRepository) CreateItem(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.StockStatus == "" {
		item.StockStatus = StockInStock
	}
	copied := *item
	copied.Variants = nil
	r.items[item.ID] = &copied
	return nil
}

func (r *InMemoryRepository) UpdateItem(ctx context.Context, item *Item) error {
	existing, ok := r.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	existing.CategoryID = item.CategoryID
	existing.Name = item.Name
	existing.Description = item.Description
	existing.PriceCents = item.PriceCents
	existing.IsAvailable = item.IsAvailable
	return nil
}

func (r *InMemoryRepository) DeleteItem(ctx context.Context, itemID string) error {
	if _, ok := r.items[itemID]; !ok {
		return ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *InMemoryRepository) SetItemImage(ctx context.Context, itemID, imageURL string) error {
	it, ok := r.items[itemID]
	if !ok {
		return ErrNotFound
	}
	it.ImageURL = imageURL
	return nil
}

func (r *InMemoryRepository) ListVariants(ctx context.Context, itemID string) ([]Variant, error) {
	var variants []Variant
	for _, v := range r.variants {
		if v.MenuItemID == itemID {
			variants = append(variants, *v)
		}
	}
	sort.Slice(variants, func(i, j int) bool {
		if variants[i].SortOrder != variants[j].SortOrder {
			return variants[i].SortOrder < variants[j].SortOrder
		}
		return variants[i].VariantName < variants[j].VariantName
	})
	return variants, nil
}

func (r *InMemoryRepository) CreateVariant(ctx context.Context, v *Variant) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.StockStatus == "" {
		v.StockStatus = StockInStock
	}
	copied := *v
	r.variants[v.ID] = &copied
	return nil
}

func (r *InMemoryRepository) DeleteVariant(ctx context.Context, variantID string) error {
	if _, ok := r.variants[variantID]; !ok {
		return ErrNotFound
	}
	delete(r.variants, variantID)
	return nil
}

func (r *InMemoryRepository) GetVariant(ctx context.Context, itemID, variantName string) (*Variant, error) {
	for _, v := range r.variants {
		if v.MenuItemID == itemID && v.VariantName == variantName {
			copied := *v
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) SetItemStock(ctx context.Context, itemID, status string, outUntil *time.Time) error {
	it, ok := r.items[itemID]
	if !ok {
		return ErrNotFound
	}
	it.StockStatus = status
	it.OutUntil = outUntil
	return nil
}

func (r *InMemoryRepository) SetVariantStock(ctx context.Context, itemID, variantName, status string, outUntil *time.Time) error {
	for _, v := range r.variants {
		if v.MenuItemID == itemID && v.VariantName == variantName {
			v.StockStatus = status
			v.OutUntil = outUntil
			return nil
		}
	}
	return ErrNotFound
}
