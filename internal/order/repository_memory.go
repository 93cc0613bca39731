package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/khadkaarun/Restaurant-Website/internal/notification"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used in tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	orders   map[string]*Order
	keys     map[string]string
	payments map[string]string
	Messages []notification.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:   make(map[string]*Order),
		keys:     make(map[string]string),
		payments: make(map[string]string),
	}
}

func (r *MemoryRepository) record(msg *notification.Message) {
	if msg == nil {
		return
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Status == "" {
		if msg.Channel == notification.ChannelAudit {
			msg.Status = notification.StatusSent
		} else {
			msg.Status = notification.StatusPending
		}
	}
	r.Messages = append(r.Messages, *msg)
}

func (r *MemoryRepository) CreateOrder(ctx context.Context, o *Order, idempotencyKey string, msg *notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[idempotencyKey]; ok {
		return ErrDuplicateOrder
	}
	if o.StripePaymentID != "" {
		if _, ok := r.payments[o.StripePaymentID]; ok {
			return ErrDuplicateOrder
		}
	}

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = StatusConfirmed
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = uuid.New().String()
		}
		o.Items[i].OrderID = o.ID
	}

	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	r.orders[o.ID] = &clone
	r.keys[idempotencyKey] = o.ID
	if o.StripePaymentID != "" {
		r.payments[o.StripePaymentID] = o.ID
	}
	if msg != nil {
		msg.OrderID = o.ID
	}
	r.record(msg)
	return nil
}

func (r *MemoryRepository) get(orderID string) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone, nil
}

func (r *MemoryRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(orderID)
}

func (r *MemoryRepository) GetOrderByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.payments[paymentID]; ok {
		return r.get(id)
	}
	if id, ok := r.keys[paymentID]; ok {
		return r.get(id)
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListOrders(ctx context.Context, status string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []Order
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		clone := *o
		clone.Items = append([]Item(nil), o.Items...)
		orders = append(orders, clone)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *MemoryRepository) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []Order
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		clone := *o
		clone.Items = append([]Item(nil), o.Items...)
		orders = append(orders, clone)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, orderID, status string, msg *notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	if msg != nil {
		msg.OrderID = orderID
	}
	r.record(msg)
	return nil
}

func (r *MemoryRepository) UpdateItemAndTotal(ctx context.Context, item *Item, newTotal int, msg *notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[item.OrderID]
	if !ok {
		return ErrNotFound
	}
	found := false
	for i := range o.Items {
		if o.Items[i].ID == item.ID {
			o.Items[i] = *item
			found = true
			break
		}
	}
	if !found {
		return ErrItemNotFound
	}
	o.TotalCents = newTotal
	if msg != nil {
		msg.OrderID = item.OrderID
	}
	r.record(msg)
	return nil
}

func (r *MemoryRepository) RemoveItemAndTotal(ctx context.Context, orderID, itemID string, newTotal int, msg *notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	found := false
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return ErrItemNotFound
	}
	o.TotalCents = newTotal
	if msg != nil {
		msg.OrderID = orderID
	}
	r.record(msg)
	return nil
}

func (r *MemoryRepository) RestoreItem(ctx context.Context, item *Item, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[item.OrderID]
	if !ok {
		return ErrNotFound
	}
	replaced := false
	for i := range o.Items {
		if o.Items[i].ID == item.ID {
			o.Items[i] = *item
			replaced = true
			break
		}
	}
	if !replaced {
		o.Items = append(o.Items, *item)
	}
	o.TotalCents = total
	return nil
}

func (r *MemoryRepository) CancelOrder(ctx context.Context, orderID string, msg *notification.Message) error {
	return r.UpdateStatus(ctx, orderID, StatusCancelled, msg)
}

func (r *MemoryRepository) Enqueue(ctx context.Context, msg *notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(msg)
	return nil
}
