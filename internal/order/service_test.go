package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/khadkaarun/Restaurant-Website/internal/menu"
	"github.com/khadkaarun/Restaurant-Website/internal/notification"
	"github.com/khadkaarun/Restaurant-Website/internal/payment"
)

// fakePayments records payment-adapter calls and can be told to fail.
type fakePayments struct {
	sessions map[string]*payment.Session

	charges    []payment.AdditionalChargeRequest
	refunds    []int64
	failRefund bool
	failCharge bool
}

func newFakePayments() *fakePayments {
	return &fakePayments{sessions: make(map[string]*payment.Session)}
}

func (f *fakePayments) CreateCheckoutSession(ctx context.Context, req *payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	id := fmt.Sprintf("cs_test_%d", len(f.sessions)+1)

	var total int64
	for _, l := range req.Lines {
		total += l.UnitAmountCents * l.Quantity
	}
	f.sessions[id] = &payment.Session{
		ID:              id,
		Paid:            true,
		PaymentIntentID: "pi_" + id,
		AmountTotal:     total,
		Metadata:        req.Metadata,
	}
	return &payment.CheckoutSession{ID: id, URL: "https://pay.example/" + id}, nil
}

func (f *fakePayments) RetrieveSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return s, nil
}

func (f *fakePayments) CreateAdditionalCharge(ctx context.Context, req *payment.AdditionalChargeRequest) (*payment.CheckoutSession, error) {
	if f.failCharge {
		return nil, errors.New("charge declined")
	}
	f.charges = append(f.charges, *req)
	id := fmt.Sprintf("cs_extra_%d", len(f.charges))
	return &payment.CheckoutSession{ID: id, URL: "https://pay.example/" + id}, nil
}

func (f *fakePayments) CreateRefund(ctx context.Context, paymentID string, amountCents int64, orderID string) (*payment.Refund, error) {
	if f.failRefund {
		return nil, errors.New("refund rejected")
	}
	f.refunds = append(f.refunds, amountCents)
	return &payment.Refund{ID: "re_test", AmountCents: amountCents, Status: "succeeded"}, nil
}

// --------------------------------------------------
// Fixtures
// --------------------------------------------------

func testMenu(t *testing.T) *menu.InMemoryRepository {
	t.Helper()
	repo := menu.NewInMemoryRepository()
	ctx := context.Background()

	cat := &menu.Category{Name: "Entrees"}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatal(err)
	}

	items := []*menu.Item{
		{ID: "item-teriyaki", CategoryID: cat.ID, Name: "Teriyaki", PriceCents: 1000, IsAvailable: true, StockStatus: menu.StockInStock},
		{ID: "item-pho", CategoryID: cat.ID, Name: "Pho", PriceCents: 1100, IsAvailable: true, StockStatus: menu.StockInStock},
		{ID: "item-katsu", CategoryID: cat.ID, Name: "Japanese Katsu Curry", PriceCents: 1400, IsAvailable: true, StockStatus: menu.StockInStock},
		{ID: "item-gyoza", CategoryID: cat.ID, Name: "Gyoza", PriceCents: 600, IsAvailable: true, StockStatus: menu.StockInStock},
	}
	for _, it := range items {
		if err := repo.CreateItem(ctx, it); err != nil {
			t.Fatal(err)
		}
	}

	variants := []*menu.Variant{
		{MenuItemID: "item-pho", VariantName: "beef", StockStatus: menu.StockInStock},
		{MenuItemID: "item-pho", VariantName: "chicken", PriceModifierCents: -100, StockStatus: menu.StockInStock},
	}
	for _, v := range variants {
		if err := repo.CreateVariant(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
	return repo
}

func newTestService(t *testing.T) (*Service, *MemoryRepository, *fakePayments) {
	t.Helper()
	repo := NewMemoryRepository()
	payments := newFakePayments()
	svc := NewService(repo, testMenu(t), payments, "https://maki.example")
	return svc, repo, payments
}

// placeOrder runs a full checkout + verify cycle and returns the order.
func placeOrder(t *testing.T, svc *Service, payments *fakePayments, cart []CartItem) *Order {
	t.Helper()
	sess, err := svc.Checkout(context.Background(), cart, CustomerDetails{
		Name:  "Aki Tanaka",
		Email: "aki@example.com",
	}, "", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	o, err := svc.VerifyCheckout(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return o
}

func assertTotalInvariant(t *testing.T, o *Order) {
	t.Helper()
	if o.TotalCents != o.ItemsTotal() {
		t.Errorf("total_cents = %d but items sum to %d", o.TotalCents, o.ItemsTotal())
	}
}

// --------------------------------------------------
// Checkout & verification
// --------------------------------------------------

func TestVerifyCheckout_CreatesOrderWithServerPrices(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		// Client-submitted price is wrong on purpose; the server reprices.
		{MenuItemID: "item-teriyaki", PriceCents: 1, Quantity: 2},
		{MenuItemID: "item-gyoza", PriceCents: 1, Quantity: 1},
	})

	if o.TotalCents != 2600 {
		t.Errorf("total = %d, want 2600", o.TotalCents)
	}
	if o.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", o.Status)
	}
	assertTotalInvariant(t, o)
}

func TestVerifyCheckout_SameSessionTwiceReturnsSameOrder(t *testing.T) {
	svc, repo, payments := newTestService(t)

	first := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-pho", Quantity: 1},
	})

	var sessionID string
	for id := range payments.sessions {
		sessionID = id
	}
	second, err := svc.VerifyCheckout(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second verification created order %s, want existing %s", second.ID, first.ID)
	}

	orders, _ := repo.ListOrders(context.Background(), "")
	if len(orders) != 1 {
		t.Errorf("found %d orders, want 1", len(orders))
	}
}

func TestVerifyCheckout_RejectsUnpaidSession(t *testing.T) {
	svc, _, payments := newTestService(t)

	payments.sessions["cs_unpaid"] = &payment.Session{ID: "cs_unpaid", Paid: false}
	if _, err := svc.VerifyCheckout(context.Background(), "cs_unpaid"); !errors.Is(err, ErrPaymentNotCompleted) {
		t.Errorf("got %v, want ErrPaymentNotCompleted", err)
	}
}

func TestCheckout_RejectsOutOfStockItem(t *testing.T) {
	menuRepo := testMenu(t)
	if err := menuRepo.SetItemStock(context.Background(), "item-pho", menu.StockOutIndefinite, nil); err != nil {
		t.Fatal(err)
	}
	svc := NewService(NewMemoryRepository(), menuRepo, newFakePayments(), "https://maki.example")

	_, err := svc.Checkout(context.Background(), []CartItem{
		{MenuItemID: "item-pho", Quantity: 1},
	}, CustomerDetails{Name: "A", Email: "a@example.com"}, "", "")
	if !errors.Is(err, ErrItemUnavailable) {
		t.Errorf("got %v, want ErrItemUnavailable", err)
	}
}

func TestCheckout_TruncatesLongSpecialRequests(t *testing.T) {
	svc, _, _ := newTestService(t)

	sess, err := svc.Checkout(context.Background(), []CartItem{
		{MenuItemID: "item-gyoza", Quantity: 1},
	}, CustomerDetails{Name: "A", Email: "a@example.com"}, "", strings.Repeat("no cilantro ", 50))
	if err != nil {
		t.Fatal(err)
	}
	o, err := svc.VerifyCheckout(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(o.SpecialRequests) != 200 {
		t.Errorf("special requests length = %d, want truncated to 200", len(o.SpecialRequests))
	}
}

func TestCheckout_LargeCartFitsMetadataValueCap(t *testing.T) {
	svc, _, payments := newTestService(t)

	var cart []CartItem
	for i := 0; i < 8; i++ {
		cart = append(cart, CartItem{
			MenuItemID:          "item-gyoza",
			Quantity:            1,
			SpecialInstructions: strings.Repeat("extra sauce ", 8),
		})
	}

	sess, err := svc.Checkout(context.Background(), cart, CustomerDetails{Name: "A", Email: "a@example.com"}, "", "")
	if err != nil {
		t.Fatal(err)
	}
	for key, value := range payments.sessions[sess.ID].Metadata {
		if len(value) > 500 {
			t.Errorf("metadata %s is %d chars; values are capped at 500", key, len(value))
		}
	}

	o, err := svc.VerifyCheckout(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Items) != 8 {
		t.Fatalf("items = %d, want all 8 lines round-tripped", len(o.Items))
	}
	for _, item := range o.Items {
		if item.SpecialInstructions != strings.Repeat("extra sauce ", 8) {
			t.Errorf("instructions lost in round-trip: %q", item.SpecialInstructions)
		}
	}
	assertTotalInvariant(t, o)
}

// --------------------------------------------------
// Cancellation
// --------------------------------------------------

func TestCancelItem_SoleItemCancelsOrderWithFullRefund(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-pho", Quantity: 1},
	})

	after, err := svc.CancelItem(context.Background(), o.ID, o.Items[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", after.Status)
	}
	// Total stays at its historical value; the order is inert.
	if after.TotalCents != 1100 {
		t.Errorf("total = %d, want 1100", after.TotalCents)
	}
	if len(payments.refunds) != 1 || payments.refunds[0] != 1100 {
		t.Errorf("refunds = %v, want one refund of 1100", payments.refunds)
	}
}

func TestCancelItem_OneOfSeveralRefundsItsSubtotal(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 2},
		{MenuItemID: "item-gyoza", Quantity: 1},
	})
	teriyaki := o.Items[0]

	after, err := svc.CancelItem(context.Background(), o.ID, teriyaki.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", after.Status)
	}
	if after.TotalCents != 600 {
		t.Errorf("total = %d, want 600", after.TotalCents)
	}
	if len(after.Items) != 1 {
		t.Errorf("items left = %d, want 1", len(after.Items))
	}
	if len(payments.refunds) != 1 || payments.refunds[0] != 2000 {
		t.Errorf("refunds = %v, want one refund of 2000", payments.refunds)
	}
	assertTotalInvariant(t, after)
}

func TestCancelItem_RefundFailureRestoresItem(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 1},
		{MenuItemID: "item-gyoza", Quantity: 1},
	})
	payments.failRefund = true

	if _, err := svc.CancelItem(context.Background(), o.ID, o.Items[0].ID); err == nil {
		t.Fatal("expected error when refund fails")
	}

	restored, err := svc.GetOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(restored.Items) != 2 {
		t.Errorf("items = %d, want the removed line restored", len(restored.Items))
	}
	if restored.TotalCents != 1600 {
		t.Errorf("total = %d, want the original 1600", restored.TotalCents)
	}
	assertTotalInvariant(t, restored)
}

func TestCancelItem_RefundFailureEnqueuesNoEmail(t *testing.T) {
	svc, repo, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 1},
		{MenuItemID: "item-gyoza", Quantity: 1},
	})
	payments.failRefund = true

	if _, err := svc.CancelItem(context.Background(), o.ID, o.Items[0].ID); err == nil {
		t.Fatal("expected error when refund fails")
	}

	// The line was restored, so the customer must not be told it was
	// removed or promised a refund that never happened.
	for _, m := range repo.Messages {
		if m.Event == notification.EventItemRemoved {
			t.Errorf("stale %s email enqueued with status %s", m.Event, m.Status)
		}
	}
}

func TestCancelOrder_RefundFailureEnqueuesNoEmail(t *testing.T) {
	svc, repo, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-pho", Quantity: 1},
	})
	payments.failRefund = true

	if err := svc.CancelOrder(context.Background(), o.ID); err == nil {
		t.Fatal("expected error when refund fails")
	}
	for _, m := range repo.Messages {
		if m.Event == notification.EventOrderCancelled {
			t.Errorf("stale %s email enqueued with status %s", m.Event, m.Status)
		}
	}
}

// --------------------------------------------------
// Item swaps
// --------------------------------------------------

func TestSwapItem_HigherPriceChargesExactDifference(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 1}, // 1000
	})

	after, err := svc.SwapItem(context.Background(), o.ID, o.Items[0].ID, "item-katsu", "", 0) // 1400
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalCents != 1400 {
		t.Errorf("total = %d, want 1400", after.TotalCents)
	}
	if len(payments.charges) != 1 || payments.charges[0].AmountCents != 400 {
		t.Fatalf("charges = %+v, want one charge of 400", payments.charges)
	}
	if len(payments.refunds) != 0 {
		t.Errorf("unexpected refunds: %v", payments.refunds)
	}
	assertTotalInvariant(t, after)
}

func TestSwapItem_LowerPriceRefundsExactDifference(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-pho", Quantity: 2}, // 2200
	})

	after, err := svc.SwapItem(context.Background(), o.ID, o.Items[0].ID, "item-gyoza", "", 0) // 600 each
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalCents != 1200 {
		t.Errorf("total = %d, want 1200", after.TotalCents)
	}
	if len(payments.refunds) != 1 || payments.refunds[0] != 1000 {
		t.Errorf("refunds = %v, want one refund of 1000", payments.refunds)
	}
	if len(payments.charges) != 0 {
		t.Errorf("unexpected charges: %+v", payments.charges)
	}
	assertTotalInvariant(t, after)
}

func TestSwapItem_ChargeFailureRestoresOriginalLine(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 1},
	})
	payments.failCharge = true

	if _, err := svc.SwapItem(context.Background(), o.ID, o.Items[0].ID, "item-katsu", "", 0); err == nil {
		t.Fatal("expected error when the charge fails")
	}

	restored, err := svc.GetOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.TotalCents != 1000 {
		t.Errorf("total = %d, want the original 1000", restored.TotalCents)
	}
	if restored.Items[0].MenuItemID != "item-teriyaki" {
		t.Errorf("line still swapped to %s", restored.Items[0].MenuItemID)
	}
	assertTotalInvariant(t, restored)
}

func TestSwapItem_VariantAndQuantityReconcileDifference(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 2}, // 2000
	})

	// Pho at 1100 with the chicken modifier of -100, three of them: 3000.
	after, err := svc.SwapItem(context.Background(), o.ID, o.Items[0].ID, "item-pho", "chicken", 3)
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalCents != 3000 {
		t.Errorf("total = %d, want 3000", after.TotalCents)
	}
	if len(payments.charges) != 1 || payments.charges[0].AmountCents != 1000 {
		t.Fatalf("charges = %+v, want one charge of 1000", payments.charges)
	}

	line := after.Items[0]
	if line.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", line.Quantity)
	}
	if line.VariantName != "chicken" || line.UnitPriceCents != 1000 {
		t.Errorf("line = %s at %d, want chicken at 1000", line.VariantName, line.UnitPriceCents)
	}
	if line.CustomName != "Pho (Chicken)" {
		t.Errorf("custom name = %q, want %q", line.CustomName, "Pho (Chicken)")
	}
	assertTotalInvariant(t, after)
}

func TestSwapItem_RefundFailureEnqueuesNoSwapEmail(t *testing.T) {
	svc, repo, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-pho", Quantity: 1},
	})
	payments.failRefund = true

	if _, err := svc.SwapItem(context.Background(), o.ID, o.Items[0].ID, "item-gyoza", "", 0); err == nil {
		t.Fatal("expected error when refund fails")
	}
	for _, m := range repo.Messages {
		if m.Event == notification.EventItemSwap {
			t.Errorf("stale %s email enqueued with status %s", m.Event, m.Status)
		}
	}
}

// --------------------------------------------------
// Variant swaps
// --------------------------------------------------

func TestSwapVariant_TeriyakiChickenToSalmonCharges200(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 1}, // chicken at 1000
	})

	after, err := svc.SwapVariant(context.Background(), o.ID, o.Items[0].ID, "salmon")
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalCents != 1200 {
		t.Errorf("total = %d, want 1200", after.TotalCents)
	}
	if len(payments.charges) != 1 || payments.charges[0].AmountCents != 200 {
		t.Fatalf("charges = %+v, want one charge of 200", payments.charges)
	}
	if after.Items[0].CustomName != "Teriyaki Salmon" {
		t.Errorf("custom name = %q, want Teriyaki Salmon", after.Items[0].CustomName)
	}
	if after.Items[0].VariantName != "salmon" {
		t.Errorf("variant name = %q, want salmon", after.Items[0].VariantName)
	}
	assertTotalInvariant(t, after)
}

func TestSwapVariant_SamePriceMakesNoPaymentCall(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-katsu", Quantity: 1}, // pork at 1400
	})

	after, err := svc.SwapVariant(context.Background(), o.ID, o.Items[0].ID, "katsu_chicken")
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalCents != 1400 {
		t.Errorf("total = %d, want unchanged 1400", after.TotalCents)
	}
	if len(payments.charges) != 0 || len(payments.refunds) != 0 {
		t.Errorf("payment adapter called for an equal-price swap: charges=%v refunds=%v", payments.charges, payments.refunds)
	}
	assertTotalInvariant(t, after)
}

func TestSwapVariant_UnknownProteinRejected(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 1},
	})
	if _, err := svc.SwapVariant(context.Background(), o.ID, o.Items[0].ID, "beef"); err == nil {
		t.Error("expected error for an unknown protein")
	}
}

// --------------------------------------------------
// Status transitions
// --------------------------------------------------

func TestUpdateStatus_FollowsTransitionTable(t *testing.T) {
	svc, _, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-gyoza", Quantity: 1},
	})

	if _, err := svc.UpdateStatus(context.Background(), o.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("confirmed -> completed: got %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), o.ID, StatusReadyForPickup); err != nil {
		t.Fatalf("confirmed -> ready_for_pickup: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), o.ID, StatusCompleted); err != nil {
		t.Fatalf("ready_for_pickup -> completed: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), o.ID, StatusConfirmed); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completed -> confirmed: got %v, want ErrInvalidTransition", err)
	}
}

// --------------------------------------------------
// Outbox
// --------------------------------------------------

func TestMutationsEnqueueCustomerEmails(t *testing.T) {
	svc, repo, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-teriyaki", Quantity: 1},
		{MenuItemID: "item-gyoza", Quantity: 1},
	})
	if _, err := svc.CancelItem(context.Background(), o.ID, o.Items[1].ID); err != nil {
		t.Fatal(err)
	}

	var events []string
	for _, m := range repo.Messages {
		if m.Channel == notification.ChannelEmail {
			events = append(events, m.Event)
		}
	}

	want := map[string]bool{
		notification.EventOrderConfirmation: false,
		notification.EventItemRemoved:       false,
	}
	for _, e := range events {
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for event, seen := range want {
		if !seen {
			t.Errorf("no %s email enqueued; events: %v", event, events)
		}
	}

	for _, m := range repo.Messages {
		if m.Channel == notification.ChannelEmail && m.Recipient != "aki@example.com" {
			t.Errorf("email %s addressed to %q", m.Event, m.Recipient)
		}
	}
}

func TestRefundsLeaveAuditTrail(t *testing.T) {
	svc, repo, payments := newTestService(t)

	o := placeOrder(t, svc, payments, []CartItem{
		{MenuItemID: "item-pho", Quantity: 1},
		{MenuItemID: "item-gyoza", Quantity: 1},
	})
	if _, err := svc.CancelItem(context.Background(), o.ID, o.Items[1].ID); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, m := range repo.Messages {
		if m.Channel == notification.ChannelAudit && m.Event == notification.EventRefundProcessed {
			found = true
			if m.Status != notification.StatusSent {
				t.Errorf("audit row status = %s, want sent so it is never dispatched", m.Status)
			}
		}
	}
	if !found {
		t.Error("no refund audit row recorded")
	}
}
