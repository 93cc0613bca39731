package push

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type Repository interface {
	Upsert(ctx context.Context, sub *Subscription, userID, userAgent string) error
	List(ctx context.Context) ([]Subscription, error)
	Delete(ctx context.Context, endpoint string) error
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, sub *Subscription, userID, userAgent string) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO push_subscriptions (endpoint, user_id, subscription_data, user_agent)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4)
		ON CONFLICT (endpoint) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    subscription_data = EXCLUDED.subscription_data,
		    user_agent = EXCLUDED.user_agent
	`, sub.Endpoint, userID, data, userAgent)
	return err
}

func (r *PostgresRepository) List(ctx context.Context) ([]Subscription, error) {
	rows, err := r.db.Query(ctx, `SELECT subscription_data FROM push_subscriptions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var sub Subscription
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, endpoint string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	return err
}
