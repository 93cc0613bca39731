package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/khadkaarun/Restaurant-Website/internal/notification"
)

// FormatPrice renders integer cents as dollars ("1200" -> "$12.00").
func FormatPrice(cents int) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

type LineData struct {
	Name                string `json:"name"`
	Quantity            int    `json:"quantity"`
	UnitPriceCents      int    `json:"unit_price_cents"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type ConfirmationData struct {
	CustomerName   string     `json:"customer_name"`
	OrderID        string     `json:"order_id"`
	Items          []LineData `json:"items"`
	TotalCents     int        `json:"total_cents"`
	PickupEstimate string     `json:"pickup_estimate"`
}

func (d *ConfirmationData) subject() string {
	return fmt.Sprintf("Order Confirmed - #%s", shortID(d.OrderID))
}

type StatusUpdateData struct {
	CustomerName string `json:"customer_name"`
	OrderID      string `json:"order_id"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

func (d *StatusUpdateData) subject() string {
	return fmt.Sprintf("Order Update - #%s", shortID(d.OrderID))
}

// SubstitutionData covers the whole substitution email family. Type selects
// the wording; PaymentURL is only set for the payment-required variant.
type SubstitutionData struct {
	Type                 string `json:"-"`
	CustomerName         string `json:"customer_name"`
	OrderID              string `json:"order_id"`
	OriginalItem         string `json:"original_item"`
	NewItem              string `json:"new_item,omitempty"`
	PriceDifferenceCents int    `json:"price_difference_cents"`
	OrderTotalCents      int    `json:"order_total_cents"`
	NewOrderTotalCents   int    `json:"new_order_total_cents,omitempty"`
	RefundAmountCents    int    `json:"refund_amount_cents,omitempty"`
	PaymentURL           string `json:"payment_url,omitempty"`
	QuantityFrom         int    `json:"quantity_from,omitempty"`
	QuantityTo           int    `json:"quantity_to,omitempty"`
	Reason               string `json:"reason,omitempty"`
}

func (d *SubstitutionData) subject() string {
	switch d.Type {
	case notification.EventOrderCancelled:
		return fmt.Sprintf("Order Cancelled - #%s", shortID(d.OrderID))
	case notification.EventPaymentRequired:
		return fmt.Sprintf("Payment Required - Order #%s", shortID(d.OrderID))
	default:
		return fmt.Sprintf("Order Updated - #%s", shortID(d.OrderID))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var templateFuncs = template.FuncMap{
	"price": FormatPrice,
	"abs": func(n int) int {
		if n < 0 {
			return -n
		}
		return n
	},
	"mul": func(a, b int) int { return a * b },
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(templateFuncs).Parse(`
<div style="max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif;">
  <div style="background-color: #dc2626; color: white; padding: 30px; text-align: center;">
    <h1 style="margin: 0;">Maki Express Ramen House</h1>
    <p style="margin: 10px 0 0 0;">Order Confirmation</p>
  </div>
  <div style="padding: 30px;">
    <h2>Thanks, {{.CustomerName}}!</h2>
    <p>Your order <strong>#{{.OrderID}}</strong> is confirmed.</p>
    <table style="width: 100%; border-collapse: collapse;">
      {{range .Items}}
      <tr>
        <td style="padding: 6px 0;">{{.Quantity}} x {{.Name}}{{if .SpecialInstructions}}<br><em style="color: #666;">{{.SpecialInstructions}}</em>{{end}}</td>
        <td style="text-align: right;">{{price (mul .UnitPriceCents .Quantity)}}</td>
      </tr>
      {{end}}
      <tr>
        <td style="border-top: 2px solid #dc2626; padding-top: 10px;"><strong>Total</strong></td>
        <td style="border-top: 2px solid #dc2626; padding-top: 10px; text-align: right;"><strong>{{price .TotalCents}}</strong></td>
      </tr>
    </table>
    {{if .PickupEstimate}}<p>Estimated pickup time: <strong>{{.PickupEstimate}}</strong></p>{{end}}
  </div>
</div>
`))

var statusUpdateTmpl = template.Must(template.New("status").Funcs(templateFuncs).Parse(`
<div style="max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif;">
  <div style="background-color: #dc2626; color: white; padding: 30px; text-align: center;">
    <h1 style="margin: 0;">Maki Express Ramen House</h1>
    <p style="margin: 10px 0 0 0;">Order Update</p>
  </div>
  <div style="padding: 30px;">
    <h2>Hi {{.CustomerName}},</h2>
    <p>Your order <strong>#{{.OrderID}}</strong> is now <strong>{{.Status}}</strong>.</p>
    {{if .Message}}<p>{{.Message}}</p>{{end}}
  </div>
</div>
`))

var substitutionTmpl = template.Must(template.New("substitution").Funcs(templateFuncs).Parse(`
<div style="max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif;">
  <div style="background-color: #dc2626; color: white; padding: 30px; text-align: center;">
    <h1 style="margin: 0;">Maki Express Ramen House</h1>
    <p style="margin: 10px 0 0 0;">{{.Title}}</p>
  </div>
  <div style="padding: 30px;">
    <h2>Order #{{.ShortID}} Updated</h2>
    <p>{{.Description}}</p>

    {{if .QuantityChanged}}
    <div style="background-color: #e0f2fe; padding: 15px; margin: 15px 0; border-left: 4px solid #0369a1;">
      Quantity changed from <strong>{{.Data.QuantityFrom}}</strong> to <strong>{{.Data.QuantityTo}}</strong>.
    </div>
    {{end}}

    {{if .PaymentRequired}}
    <div style="background-color: #fef3c7; padding: 25px; margin: 20px 0; border-left: 4px solid #f59e0b; text-align: center;">
      <p>Additional payment of <strong>{{price .Data.PriceDifferenceCents}}</strong> is required for the replacement item.</p>
      <a href="{{.Data.PaymentURL}}" style="display: inline-block; background-color: #dc2626; color: white; padding: 15px 30px; text-decoration: none; font-weight: bold;">Complete Payment Now</a>
      <p>Your order will be prepared once payment is completed.</p>
    </div>
    <table style="width: 100%;">
      <tr><td>Current Order Total:</td><td style="text-align: right;">{{price .Data.OrderTotalCents}}</td></tr>
      <tr><td>Additional Payment:</td><td style="text-align: right;">+{{price .Data.PriceDifferenceCents}}</td></tr>
      <tr><td><strong>New Total After Payment:</strong></td><td style="text-align: right;"><strong>{{price .Data.NewOrderTotalCents}}</strong></td></tr>
    </table>
    {{else if .Charged}}
    <div style="background-color: #fef3c7; padding: 20px; margin: 20px 0; border-left: 4px solid #f59e0b;">
      An additional {{price .Data.PriceDifferenceCents}} has been charged to your payment method due to the price difference.
    </div>
    {{else if .Refunded}}
    <div style="background-color: #dcfce7; padding: 20px; margin: 20px 0; border-left: 4px solid #10b981;">
      A refund of {{price .RefundCents}} has been processed and will appear in your account within 3-5 business days.
    </div>
    {{end}}

    {{if and (not .PaymentRequired) .Data.OrderTotalCents}}
    <p style="border-top: 2px solid #dc2626; padding-top: 10px;">
      <strong>Updated Order Total: {{price .Data.OrderTotalCents}}</strong>
    </p>
    {{end}}
  </div>
</div>
`))

type substitutionView struct {
	Data            *SubstitutionData
	Title           string
	ShortID         string
	Description     template.HTML
	QuantityChanged bool
	PaymentRequired bool
	Charged         bool
	Refunded        bool
	RefundCents     int
}

func renderConfirmation(d *ConfirmationData) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderStatusUpdate(d *StatusUpdateData) (string, error) {
	var buf bytes.Buffer
	if err := statusUpdateTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderSubstitution(d *SubstitutionData) (string, error) {
	view := substitutionView{
		Data:            d,
		ShortID:         shortID(d.OrderID),
		QuantityChanged: d.QuantityFrom != 0 && d.QuantityTo != 0 && d.QuantityFrom != d.QuantityTo,
	}

	esc := template.HTMLEscapeString

	switch d.Type {
	case notification.EventItemSwap:
		view.Title = "Item Substitution"
		view.Description = template.HTML(fmt.Sprintf(
			"We've substituted <strong>%s</strong> with <strong>%s</strong> in your order.",
			esc(d.OriginalItem), esc(d.NewItem)))
	case notification.EventVariantSwap:
		view.Title = "Variant Change"
		view.Description = template.HTML(fmt.Sprintf(
			"We've changed <strong>%s</strong> to <strong>%s</strong> in your order.",
			esc(d.OriginalItem), esc(d.NewItem)))
	case notification.EventItemRemoved:
		view.Title = "Item Removed"
		view.Description = template.HTML(fmt.Sprintf(
			"Unfortunately, <strong>%s</strong> is no longer available and has been removed from your order.",
			esc(d.OriginalItem)))
	case notification.EventOrderCancelled:
		view.Title = "Order Cancelled"
		if d.OriginalItem != "" {
			view.Description = template.HTML(fmt.Sprintf(
				"Your order has been cancelled as <strong>%s</strong> was the only item and is no longer available.",
				esc(d.OriginalItem)))
		} else {
			view.Description = "Your order has been cancelled and a full refund has been issued."
		}
	case notification.EventPaymentRequired:
		view.Title = "Payment Required for Replacement"
		if d.Reason != "" {
			view.Description = template.HTML(esc(d.Reason))
		} else {
			view.Description = "We need to substitute an item in your order, but the replacement costs more. Please complete payment to finalize your order."
		}
		view.PaymentRequired = true
	default:
		return "", fmt.Errorf("unknown substitution type: %s", d.Type)
	}

	if !view.PaymentRequired {
		switch {
		case d.RefundAmountCents > 0:
			view.Refunded = true
			view.RefundCents = d.RefundAmountCents
		case d.PriceDifferenceCents > 0:
			view.Charged = true
		case d.PriceDifferenceCents < 0:
			view.Refunded = true
			view.RefundCents = -d.PriceDifferenceCents
		}
	}

	var buf bytes.Buffer
	if err := substitutionTmpl.Execute(&buf, &view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
