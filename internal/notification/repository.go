package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is satisfied by both *pgxpool.Pool and pgx.Tx, so a message can be
// enqueued inside the transaction that performs the order mutation.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Audit rows enter the outbox already sent: they record something that
// happened and are never dispatched.
func defaultStatus(msg *Message) string {
	if msg.Channel == ChannelAudit {
		return StatusSent
	}
	return StatusPending
}

// Enqueue inserts an outbox row. Audit rows go in already sent.
func Enqueue(ctx context.Context, db DB, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Status == "" {
		msg.Status = defaultStatus(msg)
	}

	_, err := db.Exec(ctx, `
		INSERT INTO notifications (id, order_id, channel, event, recipient, payload, status)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7)
	`, msg.ID, msg.OrderID, msg.Channel, msg.Event, msg.Recipient, msg.Payload, msg.Status)
	return err
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Enqueue(ctx context.Context, msg *Message) error {
	return Enqueue(ctx, r.db, msg)
}

func (r *PostgresRepository) ListPending(ctx context.Context, limit int) ([]Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(order_id::text, ''), channel, event, COALESCE(recipient, ''), payload, status, attempts
		FROM notifications
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.OrderID, &m.Channel, &m.Event, &m.Recipient, &m.Payload, &m.Status, &m.Attempts); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PostgresRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET status = 'sent', sent_at = now(), attempts = attempts + 1
		WHERE id = $1
	`, id)
	return err
}

// MarkFailed records the error; messages are retried until the attempt cap,
// then parked as failed.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id string, sendErr error, maxAttempts int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1
	`, id, sendErr.Error(), maxAttempts)
	return err
}
