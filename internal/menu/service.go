package menu

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

// Stock durations accepted from the admin dashboard.
const (
	DurationToday      = "today"
	DurationIndefinite = "indefinite"
	DurationUntil      = "until"
)

type Storage interface {
	Upload(ctx context.Context, key string, file multipart.File, contentType string) (string, error)
}

type Service struct {
	repo    Repository
	storage Storage
	now     func() time.Time
}

func NewService(repo Repository, storage Storage) *Service {
	return &Service{repo: repo, storage: storage, now: time.Now}
}

// --------------------------------------------------
// Public menu
// --------------------------------------------------

func (s *Service) GetMenu(ctx context.Context) ([]Category, []Item, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.ListItems(ctx, true)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	for i := range items {
		items[i].StockStatus = EffectiveStockStatus(items[i].StockStatus, items[i].OutUntil, now)
		for j := range items[i].Variants {
			v := &items[i].Variants[j]
			v.StockStatus = EffectiveStockStatus(v.StockStatus, v.OutUntil, now)
		}
	}

	return cats, items, nil
}

func (s *Service) GetItem(ctx context.Context, itemID string) (*Item, error) {
	return s.repo.GetItem(ctx, itemID)
}

// --------------------------------------------------
// Catalog management
// --------------------------------------------------

func (s *Service) CreateCategory(ctx context.Context, cat *Category) error {
	if cat.Name == "" {
		return errors.New("category name is required")
	}
	return s.repo.CreateCategory(ctx, cat)
}

func (s *Service) CreateItem(ctx context.Context, item *Item) error {
	if item.Name == "" {
		return errors.New("item name is required")
	}
	if item.PriceCents <= 0 {
		return errors.New("price must be positive")
	}
	return s.repo.CreateItem(ctx, item)
}

func (s *Service) UpdateItem(ctx context.Context, item *Item) error {
	if item.ID == "" {
		return errors.New("item id is required")
	}
	return s.repo.UpdateItem(ctx, item)
}

func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	return s.repo.DeleteItem(ctx, itemID)
}

func (s *Service) CreateVariant(ctx context.Context, v *Variant) error {
	if v.MenuItemID == "" || v.VariantName == "" {
		return errors.New("menu item id and variant name are required")
	}
	return s.repo.CreateVariant(ctx, v)
}

func (s *Service) DeleteVariant(ctx context.Context, variantID string) error {
	return s.repo.DeleteVariant(ctx, variantID)
}

// --------------------------------------------------
// Images
// --------------------------------------------------

// UploadItemImage stores the picture under a slug-plus-extension key and
// records the public URL on the item.
func (s *Service) UploadItemImage(
	ctx context.Context,
	itemID string,
	file multipart.File,
	filename string,
	contentType string,
) (string, error) {

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", errors.New("invalid file")
	}

	key := fmt.Sprintf("menu/%s%s", Slugify(item.Name), ext)

	url, err := s.storage.Upload(ctx, key, file, contentType)
	if err != nil {
		return "", err
	}

	if err := s.repo.SetItemImage(ctx, itemID, url); err != nil {
		return "", err
	}

	return url, nil
}

// --------------------------------------------------
// Stock management
// --------------------------------------------------

// resolveStock maps an admin duration choice onto a status plus expiry.
func (s *Service) resolveStock(duration string, until *time.Time) (string, *time.Time, error) {
	switch duration {
	case DurationToday:
		now := s.now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		return StockOutToday, &midnight, nil
	case DurationIndefinite:
		return StockOutIndefinite, nil, nil
	case DurationUntil:
		if until == nil {
			return "", nil, errors.New("until timestamp is required")
		}
		return StockOutUntil, until, nil
	default:
		return "", nil, fmt.Errorf("unknown stock duration: %s", duration)
	}
}

func (s *Service) MarkItemOutOfStock(ctx context.Context, itemID, duration string, until *time.Time) error {
	status, outUntil, err := s.resolveStock(duration, until)
	if err != nil {
		return err
	}
	return s.repo.SetItemStock(ctx, itemID, status, outUntil)
}

func (s *Service) MarkItemInStock(ctx context.Context, itemID string) error {
	return s.repo.SetItemStock(ctx, itemID, StockInStock, nil)
}

// MarkVariantOutOfStock marks a single variant out and reports the variants
// still orderable, so the caller can offer a replacement or a cancellation.
func (s *Service) MarkVariantOutOfStock(
	ctx context.Context,
	itemID, variantName, duration string,
	until *time.Time,
) ([]Variant, error) {

	status, outUntil, err := s.resolveStock(duration, until)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetVariantStock(ctx, itemID, variantName, status, outUntil); err != nil {
		return nil, err
	}

	return s.AlternativeVariants(ctx, itemID, variantName)
}

func (s *Service) MarkVariantInStock(ctx context.Context, itemID, variantName string) error {
	return s.repo.SetVariantStock(ctx, itemID, variantName, StockInStock, nil)
}

// --------------------------------------------------
// Substitution candidates
// --------------------------------------------------

// AlternativeVariants lists the orderable variants of an item, excluding one.
func (s *Service) AlternativeVariants(ctx context.Context, itemID, excludeVariant string) ([]Variant, error) {
	variants, err := s.repo.ListVariants(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []Variant
	for _, v := range variants {
		if v.VariantName == excludeVariant {
			continue
		}
		if Orderable(v.StockStatus, v.OutUntil, now) {
			out = append(out, v)
		}
	}
	return out, nil
}

// ReplacementCandidates lists orderable same-category items, excluding the
// item being replaced.
func (s *Service) ReplacementCandidates(ctx context.Context, itemID string) ([]Item, error) {
	current, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListItems(ctx, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []Item
	for _, it := range items {
		if it.ID == current.ID || it.CategoryID != current.CategoryID {
			continue
		}
		if Orderable(it.StockStatus, it.OutUntil, now) {
			out = append(out, it)
		}
	}
	return out, nil
}
