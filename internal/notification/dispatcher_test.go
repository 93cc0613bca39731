package notification

import (
	"context"
	"errors"
	"testing"
)

type memoryQueue struct {
	msgs []Message
}

func (q *memoryQueue) ListPending(ctx context.Context, limit int) ([]Message, error) {
	var out []Message
	for _, m := range q.msgs {
		if m.Status == StatusPending {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *memoryQueue) find(id string) *Message {
	for i := range q.msgs {
		if q.msgs[i].ID == id {
			return &q.msgs[i]
		}
	}
	return nil
}

func (q *memoryQueue) MarkSent(ctx context.Context, id string) error {
	m := q.find(id)
	m.Status = StatusSent
	m.Attempts++
	return nil
}

func (q *memoryQueue) MarkFailed(ctx context.Context, id string, sendErr error, maxAttempts int) error {
	m := q.find(id)
	m.Attempts++
	m.LastError = sendErr.Error()
	if m.Attempts >= maxAttempts {
		m.Status = StatusFailed
	}
	return nil
}

type recordingEmail struct {
	sent []string
	err  error
}

func (r *recordingEmail) Send(ctx context.Context, event, recipient string, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, event+"->"+recipient)
	return nil
}

type recordingPush struct {
	broadcasts int
}

func (r *recordingPush) Broadcast(ctx context.Context, payload []byte) error {
	r.broadcasts++
	return nil
}

func TestDrain_DeliversPendingByChannel(t *testing.T) {
	queue := &memoryQueue{msgs: []Message{
		{ID: "1", Channel: ChannelEmail, Event: EventOrderConfirmation, Recipient: "aki@example.com", Status: StatusPending},
		{ID: "2", Channel: ChannelPush, Event: EventOrderConfirmation, Status: StatusPending},
		{ID: "3", Channel: ChannelAudit, Event: EventRefundProcessed, Status: StatusSent},
	}}
	email := &recordingEmail{}
	push := &recordingPush{}

	d := NewDispatcher(queue, email, push)
	d.drain(context.Background())

	if len(email.sent) != 1 || email.sent[0] != "order_confirmation->aki@example.com" {
		t.Errorf("email sends = %v", email.sent)
	}
	if push.broadcasts != 1 {
		t.Errorf("push broadcasts = %d, want 1", push.broadcasts)
	}
	if queue.find("1").Status != StatusSent || queue.find("2").Status != StatusSent {
		t.Error("delivered messages not marked sent")
	}
	if queue.find("3").Status != StatusSent {
		t.Error("audit row should stay sent and untouched")
	}
}

func TestDrain_FailureIsRetriedUntilAttemptCap(t *testing.T) {
	queue := &memoryQueue{msgs: []Message{
		{ID: "1", Channel: ChannelEmail, Event: EventStatusUpdate, Recipient: "aki@example.com", Status: StatusPending},
	}}
	email := &recordingEmail{err: errors.New("provider down")}

	d := NewDispatcher(queue, email, &recordingPush{})

	for i := 0; i < d.maxAttempts-1; i++ {
		d.drain(context.Background())
		if got := queue.find("1").Status; got != StatusPending {
			t.Fatalf("after attempt %d: status = %s, want still pending", i+1, got)
		}
	}

	d.drain(context.Background())
	m := queue.find("1")
	if m.Status != StatusFailed {
		t.Errorf("status = %s, want failed after %d attempts", m.Status, d.maxAttempts)
	}
	if m.LastError != "provider down" {
		t.Errorf("last_error = %q", m.LastError)
	}
}

func TestEnqueue_AuditRowsEnterAlreadySent(t *testing.T) {
	if got := defaultStatus(&Message{Channel: ChannelAudit}); got != StatusSent {
		t.Errorf("audit default status = %s, want sent", got)
	}
	if got := defaultStatus(&Message{Channel: ChannelEmail}); got != StatusPending {
		t.Errorf("email default status = %s, want pending", got)
	}
}
