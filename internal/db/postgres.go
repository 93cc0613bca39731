package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres() *pgxpool.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatal(err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatal(err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("Postgres connection failed:", err)
	}

	log.Println("Connected to PostgreSQL")

	if err := initSchema(pool); err != nil {
		log.Fatal("Failed to initialize schema:", err)
	}

	return pool
}

// initSchema creates or updates the database schema
func initSchema(pool *pgxpool.Pool) error {
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			phone VARCHAR(50),
			role VARCHAR(50) NOT NULL DEFAULT 'CUSTOMER',
			created_at TIMESTAMPTZ DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS menu_categories (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			sort_order INT NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS menu_items (
			id UUID PRIMARY KEY,
			category_id UUID REFERENCES menu_categories(id),
			name VARCHAR(255) NOT NULL,
			description TEXT,
			price_cents INT NOT NULL,
			image_url VARCHAR(500),
			is_available BOOLEAN NOT NULL DEFAULT true,
			stock_status VARCHAR(50) NOT NULL DEFAULT 'in_stock',
			out_until TIMESTAMPTZ NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS menu_item_variants (
			id UUID PRIMARY KEY,
			menu_item_id UUID NOT NULL REFERENCES menu_items(id) ON DELETE CASCADE,
			variant_name VARCHAR(255) NOT NULL,
			price_modifier_cents INT NOT NULL DEFAULT 0,
			stock_status VARCHAR(50) NOT NULL DEFAULT 'in_stock',
			out_until TIMESTAMPTZ NULL,
			sort_order INT NOT NULL DEFAULT 0,
			UNIQUE (menu_item_id, variant_name)
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NULL REFERENCES users(id),
			status VARCHAR(50) NOT NULL DEFAULT 'confirmed',
			total_cents INT NOT NULL,
			customer_name VARCHAR(255),
			customer_email VARCHAR(255),
			customer_phone VARCHAR(50),
			special_requests TEXT,
			stripe_payment_id VARCHAR(255),
			created_at TIMESTAMPTZ DEFAULT now()
		)`,

		// Race fallback for doubly-delivered checkout redirects.
		`CREATE UNIQUE INDEX IF NOT EXISTS orders_stripe_payment_id_key
			ON orders (stripe_payment_id)
			WHERE stripe_payment_id IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			menu_item_id UUID NOT NULL REFERENCES menu_items(id),
			quantity INT NOT NULL,
			unit_price_cents INT NOT NULL,
			special_instructions TEXT,
			custom_name VARCHAR(255),
			variant_name VARCHAR(255)
		)`,

		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			key VARCHAR(255) PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id),
			created_at TIMESTAMPTZ DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			order_id UUID NULL REFERENCES orders(id),
			channel VARCHAR(50) NOT NULL,
			event VARCHAR(100) NOT NULL,
			recipient VARCHAR(255),
			payload JSONB,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ DEFAULT now(),
			sent_at TIMESTAMPTZ NULL
		)`,

		`CREATE TABLE IF NOT EXISTS push_subscriptions (
			endpoint TEXT PRIMARY KEY,
			user_id UUID NULL REFERENCES users(id),
			subscription_data JSONB NOT NULL,
			user_agent TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS gallery_items (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			image_url VARCHAR(500) NOT NULL,
			sort_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	log.Println("Schema initialized successfully")
	return nil
}
