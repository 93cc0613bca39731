package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrUnsupportedPaymentID = errors.New("unsupported payment id format")

type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func (s *StripeClient) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	if len(req.Lines) == 0 {
		return nil, errors.New("cart is empty")
	}

	var lineItems []*stripe.CheckoutSessionLineItemParams
	for _, line := range req.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(line.UnitAmountCents),
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeClient) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.api.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	out := &Session{
		ID:          sess.ID,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal: sess.AmountTotal,
		Metadata:    sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	return out, nil
}

// CreateAdditionalCharge opens a new checkout session for a price difference.
// The original customer is reused when resolvable from the stored payment
// reference, otherwise the session falls back to the customer's email.
func (s *StripeClient) CreateAdditionalCharge(ctx context.Context, req *AdditionalChargeRequest) (*CheckoutSession, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("additional amount must be positive")
	}

	customerID := s.resolveCustomer(ctx, req.PaymentID)

	shortID := req.OrderID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Additional Charge for Order #%s", shortID)),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	} else {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("charge_type", "additional")
	params.AddMetadata("original_payment_id", req.PaymentID)
	params.AddMetadata("description", req.Description)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create additional charge session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeClient) resolveCustomer(ctx context.Context, paymentID string) string {
	switch {
	case strings.HasPrefix(paymentID, "cs_"):
		sess, err := s.api.CheckoutSessions.Get(paymentID, &stripe.CheckoutSessionParams{
			Params: stripe.Params{Context: ctx},
		})
		if err == nil && sess.Customer != nil {
			return sess.Customer.ID
		}
	case strings.HasPrefix(paymentID, "pi_"):
		pi, err := s.api.PaymentIntents.Get(paymentID, &stripe.PaymentIntentParams{
			Params: stripe.Params{Context: ctx},
		})
		if err == nil && pi.Customer != nil {
			return pi.Customer.ID
		}
	}
	return ""
}

// CreateRefund accepts either a payment-intent id or a checkout-session id;
// session ids are resolved to their payment intent first.
func (s *StripeClient) CreateRefund(ctx context.Context, paymentID string, amountCents int64, orderID string) (*Refund, error) {
	var paymentIntentID string

	switch {
	case strings.HasPrefix(paymentID, "pi_"):
		paymentIntentID = paymentID
	case strings.HasPrefix(paymentID, "cs_"):
		sess, err := s.api.CheckoutSessions.Get(paymentID, &stripe.CheckoutSessionParams{
			Params: stripe.Params{Context: ctx},
		})
		if err != nil {
			return nil, fmt.Errorf("resolve session for refund: %w", err)
		}
		if sess.PaymentIntent == nil {
			return nil, errors.New("no payment_intent found in session")
		}
		paymentIntentID = sess.PaymentIntent.ID
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPaymentID, paymentID)
	}

	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.AddMetadata("order_id", orderID)

	ref, err := s.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund failed: %w", err)
	}

	return &Refund{
		ID:          ref.ID,
		AmountCents: ref.Amount,
		Status:      string(ref.Status),
	}, nil
}
