package order

import (
	"context"
	"errors"

	"github.com/khadkaarun/Restaurant-Website/internal/notification"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrItemNotFound   = errors.New("order item not found")
	ErrDuplicateOrder = errors.New("order already exists for payment")
)

// Repository defines all database operations for orders. The mutation
// methods are transactional: the row changes, the total update, and the
// optional outbox message commit or roll back together.
type Repository interface {
	// CreateOrder inserts the order, its items, and the idempotency key in
	// one transaction. Returns ErrDuplicateOrder when the payment reference
	// or key was already claimed.
	CreateOrder(ctx context.Context, o *Order, idempotencyKey string, msg *notification.Message) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	ListOrders(ctx context.Context, status string) ([]Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]Order, error)

	UpdateStatus(ctx context.Context, orderID, status string, msg *notification.Message) error

	// UpdateItemAndTotal applies a swap to one line and the new order total.
	UpdateItemAndTotal(ctx context.Context, item *Item, newTotal int, msg *notification.Message) error

	// RemoveItemAndTotal deletes one line and stores the new order total.
	RemoveItemAndTotal(ctx context.Context, orderID, itemID string, newTotal int, msg *notification.Message) error

	// RestoreItem reinserts a deleted line and restores the total. Used by
	// the compensation path when a refund fails after the delete committed.
	RestoreItem(ctx context.Context, item *Item, total int) error

	// CancelOrder sets status cancelled.
	CancelOrder(ctx context.Context, orderID string, msg *notification.Message) error

	// Enqueue writes a standalone outbox message.
	Enqueue(ctx context.Context, msg *notification.Message) error
}
