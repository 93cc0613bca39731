package gallery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("gallery item not found")

type Repository interface {
	List(ctx context.Context) ([]Item, error)
	Create(ctx context.Context, item *Item) error
	Delete(ctx context.Context, itemID string) error
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, COALESCE(description, ''), image_url, sort_order, created_at
		FROM gallery_items
		ORDER BY sort_order, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.ImageURL, &it.SortOrder, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO gallery_items (id, title, description, image_url, sort_order)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
	`, item.ID, item.Title, item.Description, item.ImageURL, item.SortOrder)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, itemID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM gallery_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
