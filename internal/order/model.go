package order

import "time"

const (
	StatusConfirmed      = "confirmed"
	StatusReadyForPickup = "ready_for_pickup"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

type Order struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id,omitempty"`
	Status          string    `json:"status"`
	TotalCents      int       `json:"total_cents"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	StripePaymentID string    `json:"stripe_payment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Items           []Item    `json:"order_items,omitempty"`
}

// Item is one order line. UnitPriceCents is a snapshot taken at order time;
// CustomName overrides the menu item's name after a substitution; VariantName
// records the chosen variant explicitly.
type Item struct {
	ID                  string `json:"id"`
	OrderID             string `json:"order_id"`
	MenuItemID          string `json:"menu_item_id"`
	MenuItemName        string `json:"menu_item_name,omitempty"`
	Quantity            int    `json:"quantity"`
	UnitPriceCents      int    `json:"unit_price_cents"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	CustomName          string `json:"custom_name,omitempty"`
	VariantName         string `json:"variant_name,omitempty"`
}

// Subtotal is the line total in cents.
func (i *Item) Subtotal() int {
	return i.UnitPriceCents * i.Quantity
}

// DisplayedName is what the customer sees for this line.
func (i *Item) DisplayedName() string {
	if i.CustomName != "" {
		return i.CustomName
	}
	return DisplayName(i.MenuItemName, i.UnitPriceCents)
}

// ItemsTotal sums the line subtotals. The order invariant is
// TotalCents == ItemsTotal() after every mutation.
func (o *Order) ItemsTotal() int {
	total := 0
	for i := range o.Items {
		total += o.Items[i].Subtotal()
	}
	return total
}

func (o *Order) FindItem(itemID string) *Item {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// CartItem is one checkout cart entry as submitted by the client.
type CartItem struct {
	MenuItemID          string `json:"menu_item_id"`
	Name                string `json:"name"`
	PriceCents          int    `json:"price_cents"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	VariantName         string `json:"variant_name,omitempty"`
}

type CustomerDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
