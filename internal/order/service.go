package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/khadkaarun/Restaurant-Website/internal/mailer"
	"github.com/khadkaarun/Restaurant-Website/internal/menu"
	"github.com/khadkaarun/Restaurant-Website/internal/notification"
	"github.com/khadkaarun/Restaurant-Website/internal/payment"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidCart         = errors.New("cart item is invalid")
	ErrItemUnavailable     = errors.New("menu item is not available")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrOrderNotOpen        = errors.New("order can no longer be modified")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrSameItem            = errors.New("replacement is the same as the original")
)

// timeNow is replaced in tests.
var timeNow = time.Now

// validNext is the order status transition table. Cancellation is driven by
// the cancel flows, not by the status endpoint, but stays listed so a direct
// status change to cancelled is still legal for staff.
var validNext = map[string][]string{
	StatusConfirmed:      {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup: {StatusCompleted, StatusCancelled},
}

type Service struct {
	repo     Repository
	menu     menu.Repository
	payments payment.Client
	baseURL  string
}

func NewService(repo Repository, menuRepo menu.Repository, payments payment.Client, baseURL string) *Service {
	return &Service{
		repo:     repo,
		menu:     menuRepo,
		payments: payments,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// --------------------------------------------------
// CHECKOUT
// --------------------------------------------------

// checkoutMetadata is round-tripped through the payment session so the order
// can be created on verification, after payment actually completed.
type checkoutMetadata struct {
	Cart     []CartItem      `json:"cart"`
	Customer CustomerDetails `json:"customer"`
	UserID   string          `json:"user_id,omitempty"`
	Requests string          `json:"special_requests,omitempty"`
}

const (
	// specialRequestsMax caps the free-text request stored with an order.
	specialRequestsMax = 200
	// metadataChunkSize keeps each metadata value under Stripe's 500-char
	// cap, with headroom.
	metadataChunkSize = 450
)

// chunkCheckoutMetadata spreads the serialized cart over numbered metadata
// keys, since a multi-line cart does not fit a single capped value.
func chunkCheckoutMetadata(payload string) map[string]string {
	meta := make(map[string]string)
	for i := 0; payload != ""; i++ {
		n := metadataChunkSize
		if n > len(payload) {
			n = len(payload)
		}
		meta[fmt.Sprintf("checkout_%d", i)] = payload[:n]
		payload = payload[n:]
	}
	return meta
}

func joinCheckoutMetadata(meta map[string]string) string {
	var b strings.Builder
	for i := 0; ; i++ {
		part, ok := meta[fmt.Sprintf("checkout_%d", i)]
		if !ok {
			return b.String()
		}
		b.WriteString(part)
	}
}

// Checkout validates the cart against the live menu, reprices it server-side
// and opens a hosted payment session. No order row exists until the session
// is verified paid.
func (s *Service) Checkout(ctx context.Context, cart []CartItem, customer CustomerDetails, userID, specialRequests string) (*payment.CheckoutSession, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	if customer.Name == "" || customer.Email == "" {
		return nil, errors.New("customer name and email are required")
	}
	if len(specialRequests) > specialRequestsMax {
		specialRequests = specialRequests[:specialRequestsMax]
	}

	lines := make([]payment.CheckoutLine, 0, len(cart))
	for i := range cart {
		ci := &cart[i]
		if ci.MenuItemID == "" || ci.Quantity <= 0 {
			return nil, ErrInvalidCart
		}

		item, err := s.menu.GetItem(ctx, ci.MenuItemID)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return nil, ErrInvalidCart
			}
			return nil, err
		}
		if !item.IsAvailable || !menu.Orderable(item.StockStatus, item.OutUntil, timeNow()) {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
		}

		// The server reprices every line. Variant modifiers apply on top of
		// the base price; client-submitted prices are ignored.
		price := item.PriceCents
		if ci.VariantName != "" {
			v, err := s.menu.GetVariant(ctx, ci.MenuItemID, ci.VariantName)
			if err != nil {
				if errors.Is(err, menu.ErrNotFound) {
					return nil, ErrInvalidCart
				}
				return nil, err
			}
			if !menu.Orderable(v.StockStatus, v.OutUntil, timeNow()) {
				return nil, fmt.Errorf("%w: %s (%s)", ErrItemUnavailable, item.Name, ci.VariantName)
			}
			price += v.PriceModifierCents
		}
		ci.Name = item.Name
		ci.PriceCents = price

		lines = append(lines, payment.CheckoutLine{
			Name:            DisplayName(item.Name, price),
			UnitAmountCents: int64(price),
			Quantity:        int64(ci.Quantity),
		})
	}

	meta, err := json.Marshal(checkoutMetadata{
		Cart:     cart,
		Customer: customer,
		UserID:   userID,
		Requests: specialRequests,
	})
	if err != nil {
		return nil, err
	}

	return s.payments.CreateCheckoutSession(ctx, &payment.CheckoutRequest{
		Lines:         lines,
		CustomerEmail: customer.Email,
		SuccessURL:    s.baseURL + "/order-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.baseURL + "/cart",
		Metadata:      chunkCheckoutMetadata(string(meta)),
	})
}

// VerifyCheckout confirms a paid session and creates the order exactly once.
// Re-verifying the same session returns the already-created order.
func (s *Service) VerifyCheckout(ctx context.Context, sessionID string) (*Order, error) {
	if sessionID == "" {
		return nil, errors.New("missing session id")
	}

	sess, err := s.payments.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		return nil, ErrPaymentNotCompleted
	}

	raw := joinCheckoutMetadata(sess.Metadata)
	if raw == "" {
		return nil, errors.New("session has no checkout metadata")
	}
	var meta checkoutMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("checkout metadata: %w", err)
	}

	o := &Order{
		UserID:          meta.UserID,
		Status:          StatusConfirmed,
		CustomerName:    meta.Customer.Name,
		CustomerEmail:   meta.Customer.Email,
		CustomerPhone:   meta.Customer.Phone,
		SpecialRequests: meta.Requests,
		StripePaymentID: sess.PaymentIntentID,
	}
	if o.StripePaymentID == "" {
		o.StripePaymentID = sess.ID
	}
	for _, ci := range meta.Cart {
		o.Items = append(o.Items, Item{
			MenuItemID:          ci.MenuItemID,
			MenuItemName:        ci.Name,
			Quantity:            ci.Quantity,
			UnitPriceCents:      ci.PriceCents,
			SpecialInstructions: ci.SpecialInstructions,
			VariantName:         ci.VariantName,
		})
	}
	o.TotalCents = o.ItemsTotal()
	if int64(o.TotalCents) != sess.AmountTotal {
		return nil, fmt.Errorf("paid amount %d does not match cart total %d", sess.AmountTotal, o.TotalCents)
	}

	msg, err := confirmationEmail(o)
	if err != nil {
		return nil, err
	}

	err = s.repo.CreateOrder(ctx, o, sess.ID, msg)
	if errors.Is(err, ErrDuplicateOrder) {
		return s.repo.GetOrderByPaymentID(ctx, sess.ID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.Enqueue(ctx, newOrderPush(o)); err != nil {
		log.Printf("enqueue new-order push for %s: %v", o.ID, err)
	}
	return o, nil
}

// VerifyAdditionalCharge confirms a paid price-difference session. The order
// was already updated when the charge was created, so this only records the
// payment against the order.
func (s *Service) VerifyAdditionalCharge(ctx context.Context, sessionID string) (*Order, error) {
	sess, err := s.payments.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid {
		return nil, ErrPaymentNotCompleted
	}

	orderID := sess.Metadata["order_id"]
	if orderID == "" {
		return nil, errors.New("session has no order reference")
	}
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Enqueue(ctx, auditRow(o.ID, notification.EventAdditionalChargeCreated, fmt.Sprintf(`{"session_id":%q,"amount_cents":%d,"status":"paid"}`, sess.ID, sess.AmountTotal))); err != nil {
		log.Printf("record additional charge for %s: %v", o.ID, err)
	}
	return o, nil
}

// --------------------------------------------------
// READS
// --------------------------------------------------

func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context, status string) ([]Order, error) {
	return s.repo.ListOrders(ctx, status)
}

func (s *Service) ListOrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

// --------------------------------------------------
// STATUS
// --------------------------------------------------

func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range validNext[o.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}

	msg, err := statusEmail(o, status)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status, msg); err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

// --------------------------------------------------
// CANCELLATION
// --------------------------------------------------

// CancelOrder cancels the whole order and refunds the full total. The
// cancellation commits first; if the refund then fails the status is rolled
// back so staff can retry. The customer email is enqueued only once the
// refund has gone through, so a rolled-back cancellation never mails.
func (s *Service) CancelOrder(ctx context.Context, orderID string) error {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status == StatusCancelled || o.Status == StatusCompleted {
		return ErrOrderNotOpen
	}

	if err := s.repo.CancelOrder(ctx, orderID, nil); err != nil {
		return err
	}

	if err := s.refund(ctx, o, o.TotalCents); err != nil {
		if restoreErr := s.repo.UpdateStatus(ctx, orderID, o.Status, nil); restoreErr != nil {
			log.Printf("restore status for %s after refund failure: %v", orderID, restoreErr)
		}
		return fmt.Errorf("refund: %w", err)
	}

	msg, err := cancellationEmail(o, o.TotalCents)
	if err != nil {
		return err
	}
	if err := s.repo.Enqueue(ctx, msg); err != nil {
		log.Printf("enqueue cancellation email for %s: %v", orderID, err)
	}
	return nil
}

// CancelItem removes one line from the order and refunds it. Removing the
// only line cancels the order with a full refund instead.
func (s *Service) CancelItem(ctx context.Context, orderID, itemID string) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusConfirmed {
		return nil, ErrOrderNotOpen
	}
	item := o.FindItem(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}

	if len(o.Items) == 1 {
		if err := s.CancelOrder(ctx, orderID); err != nil {
			return nil, err
		}
		return s.repo.GetOrder(ctx, orderID)
	}

	removed := *item
	refundCents := removed.Subtotal()
	newTotal := o.TotalCents - refundCents

	if err := s.repo.RemoveItemAndTotal(ctx, orderID, itemID, newTotal, nil); err != nil {
		return nil, err
	}

	if err := s.refund(ctx, o, refundCents); err != nil {
		if restoreErr := s.repo.RestoreItem(ctx, &removed, o.TotalCents); restoreErr != nil {
			log.Printf("restore item %s after refund failure: %v", itemID, restoreErr)
		}
		return nil, fmt.Errorf("refund: %w", err)
	}

	msg, err := itemRemovedEmail(o, &removed, newTotal)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Enqueue(ctx, msg); err != nil {
		log.Printf("enqueue item-removed email for %s: %v", orderID, err)
	}

	return s.repo.GetOrder(ctx, orderID)
}

// --------------------------------------------------
// SUBSTITUTIONS
// --------------------------------------------------

// SwapItem replaces one order line with a different menu item and settles
// the price difference: an extra charge link when the replacement costs
// more, a partial refund when it costs less. An empty variantName takes the
// replacement's base price; a zero quantity keeps the line's quantity.
func (s *Service) SwapItem(ctx context.Context, orderID, itemID, newMenuItemID, variantName string, quantity int) (*Order, error) {
	if quantity < 0 {
		return nil, ErrInvalidCart
	}
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusConfirmed {
		return nil, ErrOrderNotOpen
	}
	item := o.FindItem(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.MenuItemID == newMenuItemID && variantName == item.VariantName &&
		(quantity == 0 || quantity == item.Quantity) {
		return nil, ErrSameItem
	}

	replacement, err := s.menu.GetItem(ctx, newMenuItemID)
	if err != nil {
		return nil, err
	}
	if !replacement.IsAvailable || !menu.Orderable(replacement.StockStatus, replacement.OutUntil, timeNow()) {
		return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, replacement.Name)
	}

	updated := *item
	updated.MenuItemID = replacement.ID
	updated.MenuItemName = replacement.Name
	updated.CustomName = ""
	updated.VariantName = ""
	if quantity > 0 {
		updated.Quantity = quantity
	}

	price := replacement.PriceCents
	if variantName != "" {
		v, err := s.menu.GetVariant(ctx, newMenuItemID, variantName)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return nil, fmt.Errorf("no %s variant for %s", variantName, replacement.Name)
			}
			return nil, err
		}
		if !menu.Orderable(v.StockStatus, v.OutUntil, timeNow()) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrItemUnavailable, replacement.Name, variantName)
		}
		price += v.PriceModifierCents
		updated.VariantName = variantName
		updated.CustomName = VariantDisplayName(replacement.Name, variantName, price)
	}
	updated.UnitPriceCents = price

	return s.settleSwap(ctx, o, item, &updated, notification.EventItemSwap)
}

// SwapVariant switches a line to another protein of the same dish. Variant
// prices come from the dish's protein table, so a teriyaki chicken at 1000
// swapping to salmon yields a 200-cent difference per unit.
func (s *Service) SwapVariant(ctx context.Context, orderID, itemID, variantName string) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusConfirmed {
		return nil, ErrOrderNotOpen
	}
	item := o.FindItem(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	if !SupportsProteinReplacement(item.MenuItemName) {
		return nil, fmt.Errorf("%s has no protein variants", item.MenuItemName)
	}

	var alt *ProteinAlternative
	for _, a := range ProteinAlternatives(item.MenuItemName, item.UnitPriceCents) {
		a := a
		if a.Protein == variantName {
			alt = &a
			break
		}
	}
	if alt == nil {
		return nil, fmt.Errorf("no %s variant for %s", variantName, item.MenuItemName)
	}

	updated := *item
	updated.UnitPriceCents = alt.PriceCents
	updated.CustomName = alt.Name
	updated.VariantName = alt.Protein

	return s.settleSwap(ctx, o, item, &updated, notification.EventVariantSwap)
}

// settleSwap persists the line change and reconciles payment. The payment
// call happens after the commit, with a compensating restore if it fails;
// the customer email waits for the payment outcome so a restored line never
// mails, except in the no-difference case where the email commits with the
// change.
func (s *Service) settleSwap(ctx context.Context, o *Order, original, updated *Item, event string) (*Order, error) {
	diff := updated.Subtotal() - original.Subtotal()
	newTotal := o.TotalCents + diff

	switch {
	case diff > 0:
		// Extra payment needed. Persist without email first: the payment
		// link does not exist until the charge session is created.
		if err := s.repo.UpdateItemAndTotal(ctx, updated, newTotal, nil); err != nil {
			return nil, err
		}

		sess, err := s.payments.CreateAdditionalCharge(ctx, &payment.AdditionalChargeRequest{
			OrderID:       o.ID,
			PaymentID:     o.StripePaymentID,
			CustomerEmail: o.CustomerEmail,
			AmountCents:   int64(diff),
			Description:   fmt.Sprintf("Price difference: %s -> %s", original.DisplayedName(), updated.DisplayedName()),
			SuccessURL:    s.baseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     s.baseURL + "/payment-cancelled",
		})
		if err != nil {
			if restoreErr := s.repo.UpdateItemAndTotal(ctx, original, o.TotalCents, nil); restoreErr != nil {
				log.Printf("restore item %s after charge failure: %v", original.ID, restoreErr)
			}
			return nil, fmt.Errorf("additional charge: %w", err)
		}

		msg, err := paymentRequiredEmail(o, original, updated, diff, newTotal, sess.URL)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Enqueue(ctx, msg); err != nil {
			log.Printf("enqueue payment-required email for %s: %v", o.ID, err)
		}

	case diff < 0:
		if err := s.repo.UpdateItemAndTotal(ctx, updated, newTotal, nil); err != nil {
			return nil, err
		}
		if err := s.refund(ctx, o, -diff); err != nil {
			if restoreErr := s.repo.UpdateItemAndTotal(ctx, original, o.TotalCents, nil); restoreErr != nil {
				log.Printf("restore item %s after refund failure: %v", original.ID, restoreErr)
			}
			return nil, fmt.Errorf("refund: %w", err)
		}
		msg, err := swapEmail(o, original, updated, event, diff, newTotal)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Enqueue(ctx, msg); err != nil {
			log.Printf("enqueue swap email for %s: %v", o.ID, err)
		}

	default:
		msg, err := swapEmail(o, original, updated, event, 0, newTotal)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateItemAndTotal(ctx, updated, newTotal, msg); err != nil {
			return nil, err
		}
	}

	return s.repo.GetOrder(ctx, o.ID)
}

// refund issues a partial or full refund against the order's payment and
// records it in the audit trail.
func (s *Service) refund(ctx context.Context, o *Order, amountCents int) error {
	if o.StripePaymentID == "" {
		return errors.New("order has no payment reference")
	}
	ref, err := s.payments.CreateRefund(ctx, o.StripePaymentID, int64(amountCents), o.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Enqueue(ctx, auditRow(o.ID, notification.EventRefundProcessed, fmt.Sprintf(`{"refund_id":%q,"amount_cents":%d,"status":%q}`, ref.ID, ref.AmountCents, ref.Status))); err != nil {
		log.Printf("record refund for %s: %v", o.ID, err)
	}
	return nil
}

// --------------------------------------------------
// OUTBOX MESSAGE BUILDERS
// --------------------------------------------------

func confirmationEmail(o *Order) (*notification.Message, error) {
	d := mailer.ConfirmationData{
		CustomerName:   o.CustomerName,
		OrderID:        o.ID,
		TotalCents:     o.TotalCents,
		PickupEstimate: "15-20 minutes",
	}
	for i := range o.Items {
		it := &o.Items[i]
		d.Items = append(d.Items, mailer.LineData{
			Name:                it.DisplayedName(),
			Quantity:            it.Quantity,
			UnitPriceCents:      it.UnitPriceCents,
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return emailMessage(o, notification.EventOrderConfirmation, d)
}

func statusEmail(o *Order, status string) (*notification.Message, error) {
	return emailMessage(o, notification.EventStatusUpdate, mailer.StatusUpdateData{
		CustomerName: o.CustomerName,
		OrderID:      o.ID,
		Status:       status,
	})
}

func cancellationEmail(o *Order, refundCents int) (*notification.Message, error) {
	return emailMessage(o, notification.EventOrderCancelled, mailer.SubstitutionData{
		CustomerName:      o.CustomerName,
		OrderID:           o.ID,
		OrderTotalCents:   o.TotalCents,
		RefundAmountCents: refundCents,
	})
}

func itemRemovedEmail(o *Order, removed *Item, newTotal int) (*notification.Message, error) {
	return emailMessage(o, notification.EventItemRemoved, mailer.SubstitutionData{
		CustomerName:       o.CustomerName,
		OrderID:            o.ID,
		OriginalItem:       removed.DisplayedName(),
		OrderTotalCents:    o.TotalCents,
		NewOrderTotalCents: newTotal,
		RefundAmountCents:  removed.Subtotal(),
		QuantityFrom:       removed.Quantity,
	})
}

func swapEmail(o *Order, original, updated *Item, event string, diff, newTotal int) (*notification.Message, error) {
	return emailMessage(o, event, mailer.SubstitutionData{
		CustomerName:         o.CustomerName,
		OrderID:              o.ID,
		OriginalItem:         original.DisplayedName(),
		NewItem:              updated.DisplayedName(),
		PriceDifferenceCents: diff,
		OrderTotalCents:      o.TotalCents,
		NewOrderTotalCents:   newTotal,
		RefundAmountCents:    -min(diff, 0),
		QuantityFrom:         original.Quantity,
		QuantityTo:           updated.Quantity,
	})
}

func paymentRequiredEmail(o *Order, original, updated *Item, diff, newTotal int, payURL string) (*notification.Message, error) {
	return emailMessage(o, notification.EventPaymentRequired, mailer.SubstitutionData{
		CustomerName:         o.CustomerName,
		OrderID:              o.ID,
		OriginalItem:         original.DisplayedName(),
		NewItem:              updated.DisplayedName(),
		PriceDifferenceCents: diff,
		OrderTotalCents:      o.TotalCents,
		NewOrderTotalCents:   newTotal,
		PaymentURL:           payURL,
		QuantityFrom:         original.Quantity,
		QuantityTo:           updated.Quantity,
	})
}

func emailMessage(o *Order, event string, data any) (*notification.Message, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &notification.Message{
		OrderID:   o.ID,
		Channel:   notification.ChannelEmail,
		Event:     event,
		Recipient: o.CustomerEmail,
		Payload:   payload,
	}, nil
}

func newOrderPush(o *Order) *notification.Message {
	payload, _ := json.Marshal(map[string]string{
		"title": "New Order",
		"body":  fmt.Sprintf("%s ordered %d item(s) for %s", o.CustomerName, len(o.Items), mailer.FormatPrice(o.TotalCents)),
		"url":   "/admin/orders",
	})
	return &notification.Message{
		OrderID: o.ID,
		Channel: notification.ChannelPush,
		Event:   notification.EventOrderConfirmation,
		Payload: payload,
	}
}

func auditRow(orderID, event, payload string) *notification.Message {
	return &notification.Message{
		OrderID: orderID,
		Channel: notification.ChannelAudit,
		Event:   event,
		Payload: []byte(payload),
	}
}
