package order

import (
	"context"
	"errors"

	"github.com/khadkaarun/Restaurant-Website/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --------------------------------------------------
// CREATE (IDEMPOTENT)
// --------------------------------------------------

func (r *PostgresRepository) CreateOrder(
	ctx context.Context,
	o *Order,
	idempotencyKey string,
	msg *notification.Message,
) error {

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = StatusConfirmed
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, total_cents, customer_name, customer_email,
		                    customer_phone, special_requests, stripe_payment_id)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
	`, o.ID, o.UserID, o.Status, o.TotalCents, o.CustomerName, o.CustomerEmail,
		o.CustomerPhone, o.SpecialRequests, o.StripePaymentID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOrder
		}
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO idempotency_keys (key, order_id) VALUES ($1, $2)
	`, idempotencyKey, o.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOrder
		}
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = o.ID

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, quantity, unit_price_cents,
			                         special_instructions, custom_name, variant_name)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		`, item.ID, item.OrderID, item.MenuItemID, item.Quantity, item.UnitPriceCents,
			item.SpecialInstructions, item.CustomName, item.VariantName)
		if err != nil {
			return err
		}
	}

	if msg != nil {
		msg.OrderID = o.ID
		if err := notification.Enqueue(ctx, tx, msg); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// --------------------------------------------------
// READ
// --------------------------------------------------

const orderColumns = `
	o.id, COALESCE(o.user_id::text, ''), o.status, o.total_cents,
	COALESCE(o.customer_name, ''), COALESCE(o.customer_email, ''), COALESCE(o.customer_phone, ''),
	COALESCE(o.special_requests, ''), COALESCE(o.stripe_payment_id, ''), o.created_at
`

func (r *PostgresRepository) scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalCents,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.SpecialRequests, &o.StripePaymentID, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.menu_item_id, mi.name, oi.quantity, oi.unit_price_cents,
		       COALESCE(oi.special_instructions, ''), COALESCE(oi.custom_name, ''), COALESCE(oi.variant_name, '')
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.MenuItemID, &it.MenuItemName, &it.Quantity,
			&it.UnitPriceCents, &it.SpecialInstructions, &it.CustomName, &it.VariantName,
		); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *PostgresRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, orderID))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PostgresRepository) GetOrderByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.stripe_payment_id = $1
		   OR o.id IN (SELECT order_id FROM idempotency_keys WHERE key = $1)
	`, paymentID))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PostgresRepository) listOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.TotalCents,
			&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
			&o.SpecialRequests, &o.StripePaymentID, &o.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *PostgresRepository) ListOrders(ctx context.Context, status string) ([]Order, error) {
	if status != "" {
		return r.listOrders(ctx, `
			SELECT `+orderColumns+` FROM orders o
			WHERE o.status = $1
			ORDER BY o.created_at DESC
		`, status)
	}
	return r.listOrders(ctx, `
		SELECT `+orderColumns+` FROM orders o
		ORDER BY o.created_at DESC
	`)
}

func (r *PostgresRepository) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.listOrders(ctx, `
		SELECT `+orderColumns+` FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`, userID)
}

// --------------------------------------------------
// MUTATIONS (SINGLE TRANSACTION EACH)
// --------------------------------------------------

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID, status string, msg *notification.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	if msg != nil {
		msg.OrderID = orderID
		if err := notification.Enqueue(ctx, tx, msg); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) UpdateItemAndTotal(ctx context.Context, item *Item, newTotal int, msg *notification.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE order_items
		SET menu_item_id = $2,
		    quantity = $3,
		    unit_price_cents = $4,
		    custom_name = NULLIF($5, ''),
		    variant_name = NULLIF($6, '')
		WHERE id = $1
	`, item.ID, item.MenuItemID, item.Quantity, item.UnitPriceCents, item.CustomName, item.VariantName)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET total_cents = $2 WHERE id = $1`, item.OrderID, newTotal); err != nil {
		return err
	}

	if msg != nil {
		msg.OrderID = item.OrderID
		if err := notification.Enqueue(ctx, tx, msg); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) RemoveItemAndTotal(ctx context.Context, orderID, itemID string, newTotal int, msg *notification.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET total_cents = $2 WHERE id = $1`, orderID, newTotal); err != nil {
		return err
	}

	if msg != nil {
		msg.OrderID = orderID
		if err := notification.Enqueue(ctx, tx, msg); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) RestoreItem(ctx context.Context, item *Item, total int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO order_items (id, order_id, menu_item_id, quantity, unit_price_cents,
		                         special_instructions, custom_name, variant_name)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		ON CONFLICT (id) DO UPDATE
		SET menu_item_id = EXCLUDED.menu_item_id,
		    quantity = EXCLUDED.quantity,
		    unit_price_cents = EXCLUDED.unit_price_cents,
		    custom_name = EXCLUDED.custom_name,
		    variant_name = EXCLUDED.variant_name
	`, item.ID, item.OrderID, item.MenuItemID, item.Quantity, item.UnitPriceCents,
		item.SpecialInstructions, item.CustomName, item.VariantName)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET total_cents = $2 WHERE id = $1`, item.OrderID, total); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) CancelOrder(ctx context.Context, orderID string, msg *notification.Message) error {
	return r.UpdateStatus(ctx, orderID, StatusCancelled, msg)
}

func (r *PostgresRepository) Enqueue(ctx context.Context, msg *notification.Message) error {
	return notification.Enqueue(ctx, r.db, msg)
}
