package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/khadkaarun/Restaurant-Website/internal/menu"
	"github.com/khadkaarun/Restaurant-Website/internal/order"
)

// Params carries the event-specific inputs for an Advance call. Unused
// fields are ignored by events that do not read them.
type Params struct {
	Scope           string     `json:"scope,omitempty"`
	VariantName     string     `json:"variant_name,omitempty"`
	Duration        string     `json:"duration,omitempty"`
	Until           *time.Time `json:"until,omitempty"`
	ReplacementType string     `json:"replacement_type,omitempty"`
	Candidate       string     `json:"candidate,omitempty"`
	// Quantity optionally changes the line's quantity on an item
	// replacement; zero keeps it.
	Quantity int `json:"quantity,omitempty"`
}

// Result is the session after an event plus whatever the new step needs to
// present: substitution candidates, variant alternatives, or the mutated
// order on completion.
type Result struct {
	Session      *Session                   `json:"session"`
	Candidates   []menu.Item                `json:"candidates,omitempty"`
	Alternatives []menu.Variant             `json:"alternatives,omitempty"`
	Proteins     []order.ProteinAlternative `json:"proteins,omitempty"`
	Order        *order.Order               `json:"order,omitempty"`
	// NoAlternatives is set when marking a variant out left nothing
	// orderable, so cancellation is the only option left.
	NoAlternatives bool `json:"no_alternatives,omitempty"`
}

type Service struct {
	sessions *Manager
	orders   *order.Service
	menus    *menu.Service
}

func NewService(sessions *Manager, orders *order.Service, menus *menu.Service) *Service {
	return &Service{sessions: sessions, orders: orders, menus: menus}
}

// Start opens a substitution flow for one order line. If the line's menu
// item is already fully out of stock the flow starts cancel-only.
func (s *Service) Start(ctx context.Context, orderID, itemID string) (*Session, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	item := o.FindItem(itemID)
	if item == nil {
		return nil, order.ErrItemNotFound
	}

	cancelOnly := false
	mi, err := s.menus.GetItem(ctx, item.MenuItemID)
	if err == nil {
		cancelOnly = !menu.Orderable(mi.StockStatus, mi.OutUntil, time.Now())
	} else if !errors.Is(err, menu.ErrNotFound) {
		return nil, err
	}

	return s.sessions.Start(orderID, itemID, item.MenuItemID, cancelOnly), nil
}

// Advance applies one event to a session, running the step's side effects.
func (s *Service) Advance(ctx context.Context, sessionID string, event Event, p *Params) (*Result, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &Params{}
	}

	if err := s.prepare(sess, event, p); err != nil {
		return nil, err
	}
	if err := sess.Advance(event); err != nil {
		return nil, err
	}

	res, err := s.execute(ctx, sess, event, p)
	if err != nil {
		// The transition already happened; roll the step back so staff
		// can retry the action.
		sess.Step = stepBefore(event)
		return nil, err
	}

	if sess.Closed() {
		s.sessions.Remove(sess.ID)
	}
	res.Session = sess
	return res, nil
}

// prepare validates and records event inputs before the transition.
func (s *Service) prepare(sess *Session, event Event, p *Params) error {
	switch event {
	case EventChooseScope:
		if p.Scope != TypeItem && p.Scope != TypeVariant {
			return fmt.Errorf("scope must be %q or %q", TypeItem, TypeVariant)
		}
		if p.Scope == TypeVariant && p.VariantName == "" {
			return errors.New("variant_name is required for variant scope")
		}
		sess.StockScope = p.Scope
		sess.VariantName = p.VariantName

	case EventChooseType:
		if p.ReplacementType != TypeItem && p.ReplacementType != TypeVariant {
			return fmt.Errorf("replacement_type must be %q or %q", TypeItem, TypeVariant)
		}
		sess.ReplacementType = p.ReplacementType

	case EventSelectCandidate:
		if p.Candidate == "" {
			return errors.New("candidate is required")
		}
	}
	return nil
}

// execute runs the side effect attached to the step just entered.
func (s *Service) execute(ctx context.Context, sess *Session, event Event, p *Params) (*Result, error) {
	res := &Result{}

	switch event {
	case EventApplyStock:
		if sess.StockScope == TypeVariant {
			alts, err := s.menus.MarkVariantOutOfStock(ctx, sess.MenuItemID, sess.VariantName, p.Duration, p.Until)
			if err != nil {
				return nil, err
			}
			res.Alternatives = alts
			res.NoAlternatives = len(alts) == 0
			return res, nil
		}
		if err := s.menus.MarkItemOutOfStock(ctx, sess.MenuItemID, p.Duration, p.Until); err != nil {
			return nil, err
		}
		candidates, err := s.menus.ReplacementCandidates(ctx, sess.MenuItemID)
		if err != nil {
			return nil, err
		}
		res.Candidates = candidates
		return res, nil

	case EventCancelItem:
		o, err := s.orders.CancelItem(ctx, sess.OrderID, sess.ItemID)
		if err != nil {
			return nil, err
		}
		res.Order = o
		return res, nil

	case EventChooseType:
		if sess.ReplacementType == TypeVariant {
			o, err := s.orders.GetOrder(ctx, sess.OrderID)
			if err != nil {
				return nil, err
			}
			item := o.FindItem(sess.ItemID)
			if item == nil {
				return nil, order.ErrItemNotFound
			}
			if !order.SupportsProteinReplacement(item.MenuItemName) {
				return nil, fmt.Errorf("%s has no protein variants", item.MenuItemName)
			}
			res.Proteins = order.ProteinAlternatives(item.MenuItemName, item.UnitPriceCents)
			return res, nil
		}
		candidates, err := s.menus.ReplacementCandidates(ctx, sess.MenuItemID)
		if err != nil {
			return nil, err
		}
		res.Candidates = candidates
		return res, nil

	case EventSelectCandidate:
		var o *order.Order
		var err error
		if sess.ReplacementType == TypeVariant {
			o, err = s.orders.SwapVariant(ctx, sess.OrderID, sess.ItemID, p.Candidate)
		} else {
			o, err = s.orders.SwapItem(ctx, sess.OrderID, sess.ItemID, p.Candidate, p.VariantName, p.Quantity)
		}
		if err != nil {
			return nil, err
		}
		res.Order = o
		return res, nil
	}

	return res, nil
}

// stepBefore maps an event back to the step it fires from, for rolling back
// a transition whose side effect failed.
func stepBefore(event Event) Step {
	for from, events := range transitions {
		for e := range events {
			if e == event {
				return from
			}
		}
	}
	return StepConfirm
}
