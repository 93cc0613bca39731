package mailer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/khadkaarun/Restaurant-Website/internal/notification"
)

func TestFormatPrice(t *testing.T) {
	cases := map[int]string{
		0:    "$0.00",
		600:  "$6.00",
		1250: "$12.50",
		5:    "$0.05",
	}
	for cents, want := range cases {
		if got := FormatPrice(cents); got != want {
			t.Errorf("FormatPrice(%d) = %q, want %q", cents, got, want)
		}
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRender_Confirmation(t *testing.T) {
	payload := mustMarshal(t, ConfirmationData{
		CustomerName: "Aki Tanaka",
		OrderID:      "4f9c2f1a-0000-0000-0000-000000000000",
		Items: []LineData{
			{Name: "Teriyaki Chicken", Quantity: 2, UnitPriceCents: 1000},
			{Name: "Gyoza", Quantity: 1, UnitPriceCents: 600, SpecialInstructions: "extra sauce"},
		},
		TotalCents:     2600,
		PickupEstimate: "15-20 minutes",
	})

	subject, html, err := Render(notification.EventOrderConfirmation, payload)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "Order Confirmed - #4f9c2f1a" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"Aki Tanaka", "2 x Teriyaki Chicken", "$20.00", "extra sauce", "$26.00", "15-20 minutes"} {
		if !strings.Contains(html, want) {
			t.Errorf("confirmation body missing %q", want)
		}
	}
}

func TestRender_PaymentRequiredIncludesLink(t *testing.T) {
	payload := mustMarshal(t, SubstitutionData{
		CustomerName:         "Aki Tanaka",
		OrderID:              "4f9c2f1a-0000-0000-0000-000000000000",
		OriginalItem:         "Teriyaki Chicken",
		NewItem:              "Teriyaki Salmon",
		PriceDifferenceCents: 200,
		OrderTotalCents:      1000,
		NewOrderTotalCents:   1200,
		PaymentURL:           "https://pay.example/cs_123",
	})

	subject, html, err := Render(notification.EventPaymentRequired, payload)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "Payment Required - Order #4f9c2f1a" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{"https://pay.example/cs_123", "$2.00", "$12.00", "Complete Payment Now"} {
		if !strings.Contains(html, want) {
			t.Errorf("payment-required body missing %q", want)
		}
	}
}

func TestRender_ItemRemovedShowsRefund(t *testing.T) {
	payload := mustMarshal(t, SubstitutionData{
		CustomerName:       "Aki Tanaka",
		OrderID:            "4f9c2f1a-0000-0000-0000-000000000000",
		OriginalItem:       "Gyoza",
		OrderTotalCents:    2600,
		NewOrderTotalCents: 2000,
		RefundAmountCents:  600,
	})

	_, html, err := Render(notification.EventItemRemoved, payload)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Gyoza", "no longer available", "refund of $6.00"} {
		if !strings.Contains(html, want) {
			t.Errorf("item-removed body missing %q", want)
		}
	}
}

func TestRender_VariantSwapNamesBothItems(t *testing.T) {
	payload := mustMarshal(t, SubstitutionData{
		CustomerName: "Aki Tanaka",
		OrderID:      "4f9c2f1a-0000-0000-0000-000000000000",
		OriginalItem: "Teriyaki Chicken",
		NewItem:      "Teriyaki Tofu",
	})

	_, html, err := Render(notification.EventVariantSwap, payload)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "Teriyaki Chicken") || !strings.Contains(html, "Teriyaki Tofu") {
		t.Error("variant-swap body should name both the old and new item")
	}
}

func TestRender_EscapesItemNames(t *testing.T) {
	payload := mustMarshal(t, SubstitutionData{
		OrderID:      "4f9c2f1a",
		OriginalItem: `<script>alert("x")</script>`,
		NewItem:      "Udon",
	})

	_, html, err := Render(notification.EventItemSwap, payload)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("item name was not escaped")
	}
}

func TestRender_UnknownEvent(t *testing.T) {
	if _, _, err := Render("mystery_event", []byte(`{}`)); err == nil {
		t.Error("expected error for an unknown event")
	}
}
