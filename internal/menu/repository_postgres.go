package menu

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// --------------------------------------------------
// CATALOG
// --------------------------------------------------

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, sort_order
		FROM menu_categories
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *PostgresRepository) ListItems(ctx context.Context, availableOnly bool) ([]Item, error) {
	query := `
		SELECT id, COALESCE(category_id::text, ''), name, COALESCE(description, ''),
		       price_cents, COALESCE(image_url, ''), is_available, stock_status, out_until
		FROM menu_items
	`
	if availableOnly {
		query += ` WHERE is_available = true`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.CategoryID, &it.Name, &it.Description,
			&it.PriceCents, &it.ImageURL, &it.IsAvailable, &it.StockStatus, &it.OutUntil,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		variants, err := r.ListVariants(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Variants = variants
	}

	return items, nil
}

func (r *PostgresRepository) GetItem(ctx context.Context, itemID string) (*Item, error) {
	var it Item
	err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(category_id::text, ''), name, COALESCE(description, ''),
		       price_cents, COALESCE(image_url, ''), is_available, stock_status, out_until
		FROM menu_items
		WHERE id = $1
	`, itemID).Scan(
		&it.ID, &it.CategoryID, &it.Name, &it.Description,
		&it.PriceCents, &it.ImageURL, &it.IsAvailable, &it.StockStatus, &it.OutUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	variants, err := r.ListVariants(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	it.Variants = variants

	return &it, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, cat *Category) error {
	if cat.ID == "" {
		cat.ID = uuid.New().String()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_categories (id, name, sort_order)
		VALUES ($1, $2, $3)
	`, cat.ID, cat.Name, cat.SortOrder)
	return err
}

func (r *PostgresRepository) CreateItem(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.StockStatus == "" {
		item.StockStatus = StockInStock
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_items (id, category_id, name, description, price_cents, image_url, is_available, stock_status)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`, item.ID, item.CategoryID, item.Name, item.Description,
		item.PriceCents, item.ImageURL, item.IsAvailable, item.StockStatus)
	return err
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, item *Item) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE menu_items
		SET category_id = NULLIF($2, '')::uuid,
		    name = $3,
		    description = $4,
		    price_cents = $5,
		    is_available = $6
		WHERE id = $1
	`, item.ID, item.CategoryID, item.Name, item.Description, item.PriceCents, item.IsAvailable)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, itemID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetItemImage(ctx context.Context, itemID, imageURL string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE menu_items SET image_url = $2 WHERE id = $1
	`, itemID, imageURL)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --------------------------------------------------
// VARIANTS
// --------------------------------------------------

func (r *PostgresRepository) ListVariants(ctx context.Context, itemID string) ([]Variant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, menu_item_id, variant_name, price_modifier_cents, stock_status, out_until, sort_order
		FROM menu_item_variants
		WHERE menu_item_id = $1
		ORDER BY sort_order, variant_name
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(
			&v.ID, &v.MenuItemID, &v.VariantName, &v.PriceModifierCents,
			&v.StockStatus, &v.OutUntil, &v.SortOrder,
		); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *PostgresRepository) CreateVariant(ctx context.Context, v *Variant) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.StockStatus == "" {
		v.StockStatus = StockInStock
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_item_variants (id, menu_item_id, variant_name, price_modifier_cents, stock_status, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.MenuItemID, v.VariantName, v.PriceModifierCents, v.StockStatus, v.SortOrder)
	return err
}

func (r *PostgresRepository) DeleteVariant(ctx context.Context, variantID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM menu_item_variants WHERE id = $1`, variantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) GetVariant(ctx context.Context, itemID, variantName string) (*Variant, error) {
	var v Variant
	err := r.db.QueryRow(ctx, `
		SELECT id, menu_item_id, variant_name, price_modifier_cents, stock_status, out_until, sort_order
		FROM menu_item_variants
		WHERE menu_item_id = $1 AND variant_name = $2
	`, itemID, variantName).Scan(
		&v.ID, &v.MenuItemID, &v.VariantName, &v.PriceModifierCents,
		&v.StockStatus, &v.OutUntil, &v.SortOrder,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// --------------------------------------------------
// STOCK
// --------------------------------------------------

func (r *PostgresRepository) SetItemStock(ctx context.Context, itemID, status string, outUntil *time.Time) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE menu_items
		SET stock_status = $2,
		    out_until = $3
		WHERE id = $1
	`, itemID, status, outUntil)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetVariantStock(ctx context.Context, itemID, variantName, status string, outUntil *time.Time) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE menu_item_variants
		SET stock_status = $3,
		    out_until = $4
		WHERE menu_item_id = $1 AND variant_name = $2
	`, itemID, variantName, status, outUntil)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
