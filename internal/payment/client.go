package payment

import "context"

// Stripe is authoritative for money movement; nothing here keeps a ledger.

type CheckoutLine struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

type CheckoutRequest struct {
	Lines         []CheckoutLine
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession is the hosted-payment handle returned to the caller.
type CheckoutSession struct {
	ID  string
	URL string
}

// Session is a retrieved checkout session.
type Session struct {
	ID              string
	Paid            bool
	PaymentIntentID string
	CustomerID      string
	AmountTotal     int64
	Metadata        map[string]string
}

type AdditionalChargeRequest struct {
	OrderID       string
	PaymentID     string // original cs_* or pi_* reference
	CustomerEmail string
	AmountCents   int64
	Description   string
	SuccessURL    string
	CancelURL     string
}

type Refund struct {
	ID          string
	AmountCents int64
	Status      string
}

// Client wraps the payment processor operations the order flows need.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
	CreateAdditionalCharge(ctx context.Context, req *AdditionalChargeRequest) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, paymentID string, amountCents int64, orderID string) (*Refund, error)
}
