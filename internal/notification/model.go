package notification

// Channels a message can be delivered on. ChannelAudit rows are records of
// an action that already happened (e.g. a processed refund) and are never
// dispatched.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelAudit = "audit"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Events carried through the outbox.
const (
	EventOrderConfirmation = "order_confirmation"
	EventStatusUpdate      = "status_update"
	EventOrderCancelled    = "order_cancelled"
	EventItemRemoved       = "item_removed"
	EventItemSwap          = "item_swap"
	EventVariantSwap       = "variant_swap"
	EventPaymentRequired   = "item_swap_payment_required"

	EventRefundProcessed         = "refund_processed"
	EventAdditionalChargeCreated = "additional_charge_initiated"
)

type Message struct {
	ID        string
	OrderID   string
	Channel   string
	Event     string
	Recipient string
	Payload   []byte
	Status    string
	Attempts  int
	LastError string
}
