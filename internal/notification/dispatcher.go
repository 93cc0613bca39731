package notification

import (
	"context"
	"log"
	"time"
)

// EmailSender renders and sends one templated email for an outbox event.
type EmailSender interface {
	Send(ctx context.Context, event, recipient string, payload []byte) error
}

// PushSender broadcasts a push payload to every stored subscription.
type PushSender interface {
	Broadcast(ctx context.Context, payload []byte) error
}

type Queue interface {
	ListPending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, sendErr error, maxAttempts int) error
}

// Dispatcher drains the outbox. Order mutations commit their notification
// rows transactionally; delivery happens here, so a provider outage never
// blocks or rolls back a staff action.
type Dispatcher struct {
	queue       Queue
	email       EmailSender
	push        PushSender
	interval    time.Duration
	maxAttempts int
}

func NewDispatcher(queue Queue, email EmailSender, push PushSender) *Dispatcher {
	return &Dispatcher{
		queue:       queue,
		email:       email,
		push:        push,
		interval:    5 * time.Second,
		maxAttempts: 5,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("Notification dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Notification dispatcher stopped")
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	msgs, err := d.queue.ListPending(ctx, 20)
	if err != nil {
		log.Println("Failed to list pending notifications:", err)
		return
	}

	for _, msg := range msgs {
		if err := d.deliver(ctx, &msg); err != nil {
			log.Printf("Notification %s (%s/%s) failed: %v", msg.ID, msg.Channel, msg.Event, err)
			if err := d.queue.MarkFailed(ctx, msg.ID, err, d.maxAttempts); err != nil {
				log.Println("Failed to record notification failure:", err)
			}
			continue
		}
		if err := d.queue.MarkSent(ctx, msg.ID); err != nil {
			log.Println("Failed to mark notification sent:", err)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) error {
	switch msg.Channel {
	case ChannelEmail:
		return d.email.Send(ctx, msg.Event, msg.Recipient, msg.Payload)
	case ChannelPush:
		return d.push.Broadcast(ctx, msg.Payload)
	default:
		// Unknown channels are dropped rather than retried forever.
		log.Printf("Dropping notification %s with unknown channel %q", msg.ID, msg.Channel)
		return nil
	}
}
