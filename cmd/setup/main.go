// File: cmd/setup/main.go
package main

import (
	"context"
	"flag"
	"log"

	"coursepay/internal/config"
	pg "coursepay/internal/infra/db/postgres"
)

// This script creates the two durable tables the service owns: the
// enrollment side records and the append-only webhook log.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	log.Println("[1/2] Creating enrollments table...")
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS enrollments (
			id             UUID PRIMARY KEY,
			transaction_id TEXT NOT NULL UNIQUE,
			product        TEXT NOT NULL,
			name           TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL,
			phone          TEXT NOT NULL DEFAULT '',
			payment_status TEXT NOT NULL,
			amount_minor   BIGINT NOT NULL,
			currency       TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		log.Fatalf("create enrollments: %v", err)
	}

	log.Println("[2/2] Creating webhook_events table...")
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS webhook_events (
			id             TEXT PRIMARY KEY,
			transaction_id TEXT,
			headers        JSONB NOT NULL DEFAULT '{}',
			body           BYTEA,
			received_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS webhook_events_txn_idx ON webhook_events (transaction_id);
	`)
	if err != nil {
		log.Fatalf("create webhook_events: %v", err)
	}

	log.Println("--- Setup complete ---")
}
