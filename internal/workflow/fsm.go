package workflow

import (
	"errors"
	"fmt"
	"time"
)

// Steps of the staff substitution flow for a single order line.
type Step string

const (
	StepConfirm            Step = "confirm"
	StepOutOfStockChoice   Step = "out_of_stock_choice"
	StepStockOptions       Step = "stock_options"
	StepActionChoice       Step = "action_choice"
	StepReplacementType    Step = "replacement_type"
	StepReplacementOptions Step = "replacement_options"
	StepDone               Step = "done"
)

// Events advancing the flow.
type Event string

const (
	EventConfirm         Event = "confirm"
	EventMarkStock       Event = "mark_stock"
	EventChooseScope     Event = "choose_scope"
	EventApplyStock      Event = "apply_stock"
	EventReplace         Event = "replace"
	EventCancelItem      Event = "cancel_item"
	EventChooseType      Event = "choose_type"
	EventSelectCandidate Event = "select_candidate"
	EventClose           Event = "close"
)

// Replacement scope chosen at replacement_type.
const (
	TypeItem    = "item"
	TypeVariant = "variant"
)

var ErrBadTransition = errors.New("event not valid in current step")

// transitions is the flow's full table. EventClose is legal from anywhere
// and handled outside the table.
var transitions = map[Step]map[Event]Step{
	StepConfirm: {
		EventConfirm:   StepActionChoice,
		EventMarkStock: StepOutOfStockChoice,
	},
	StepOutOfStockChoice: {
		EventChooseScope: StepStockOptions,
	},
	StepStockOptions: {
		EventApplyStock: StepDone,
	},
	StepActionChoice: {
		EventReplace:    StepReplacementType,
		EventCancelItem: StepDone,
	},
	StepReplacementType: {
		EventChooseType: StepReplacementOptions,
	},
	StepReplacementOptions: {
		EventSelectCandidate: StepDone,
	},
}

// Session is one in-flight substitution flow. Sessions are ephemeral: they
// live in memory only and are discarded on completion or expiry.
type Session struct {
	ID              string `json:"id"`
	OrderID         string `json:"order_id"`
	ItemID          string `json:"item_id"`
	MenuItemID      string `json:"menu_item_id"`
	Step            Step   `json:"step"`
	ReplacementType string `json:"replacement_type,omitempty"`
	StockScope      string `json:"stock_scope,omitempty"`
	VariantName     string `json:"variant_name,omitempty"`
	// CancelOnly is set when the underlying menu item is fully out of
	// stock: replacement is pointless, only cancellation remains.
	CancelOnly bool      `json:"cancel_only"`
	CreatedAt  time.Time `json:"-"`
}

// Advance moves the session along the transition table.
func (s *Session) Advance(event Event) error {
	if event == EventClose {
		s.Step = StepDone
		return nil
	}
	next, ok := transitions[s.Step][event]
	if !ok {
		return fmt.Errorf("%w: %s at %s", ErrBadTransition, event, s.Step)
	}
	if s.CancelOnly && (event == EventReplace || event == EventChooseType || event == EventSelectCandidate) {
		return fmt.Errorf("%w: item is out of stock, only cancellation is possible", ErrBadTransition)
	}
	s.Step = next
	return nil
}

func (s *Session) Closed() bool {
	return s.Step == StepDone
}
