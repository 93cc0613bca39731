package menu

import "time"

// Stock statuses for menu items and their variants. out_today clears at the
// next local midnight, out_until clears at the stored timestamp.
const (
	StockInStock       = "in_stock"
	StockLowStock      = "low_stock"
	StockOutToday      = "out_today"
	StockOutIndefinite = "out_indefinite"
	StockOutUntil      = "out_until"
)

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type Item struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"category_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PriceCents  int        `json:"price_cents"`
	ImageURL    string     `json:"image_url,omitempty"`
	IsAvailable bool       `json:"is_available"`
	StockStatus string     `json:"stock_status"`
	OutUntil    *time.Time `json:"out_until,omitempty"`
	Variants    []Variant  `json:"variants,omitempty"`
}

type Variant struct {
	ID                 string     `json:"id"`
	MenuItemID         string     `json:"menu_item_id"`
	VariantName        string     `json:"variant_name"`
	PriceModifierCents int        `json:"price_modifier_cents"`
	StockStatus        string     `json:"stock_status"`
	OutUntil           *time.Time `json:"out_until,omitempty"`
	SortOrder          int        `json:"sort_order"`
}

// EffectiveStockStatus resolves timed stock states against the clock. An
// out_until in the past and an out_today from a previous day both count as
// back in stock.
func EffectiveStockStatus(status string, outUntil *time.Time, now time.Time) string {
	switch status {
	case StockOutUntil:
		if outUntil == nil || !outUntil.After(now) {
			return StockInStock
		}
	case StockOutToday:
		if outUntil != nil && !outUntil.After(now) {
			return StockInStock
		}
	}
	return status
}

// Orderable reports whether something in the given stock state can be sold or
// offered as a substitution candidate.
func Orderable(status string, outUntil *time.Time, now time.Time) bool {
	switch EffectiveStockStatus(status, outUntil, now) {
	case StockInStock, StockLowStock:
		return true
	}
	return false
}
