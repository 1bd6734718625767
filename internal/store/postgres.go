package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/toko-cart/internal/cart"
)

// DB is the subset of *pgxpool.Pool used by Postgres.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS cart_contents (
	instance_key TEXT PRIMARY KEY,
	content JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectSQL = `SELECT content FROM cart_contents WHERE instance_key = $1`
	upsertSQL = `INSERT INTO cart_contents (instance_key, content, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (instance_key) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`
	deleteSQL = `DELETE FROM cart_contents WHERE instance_key = $1`
)

// Postgres persists cart content in a JSONB column keyed by instance.
type Postgres struct {
	db DB
}

// NewPostgres constructs a Postgres backed store.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the cart table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if p.db == nil {
		return ErrNotConfigured
	}
	_, err := p.db.Exec(ctx, schemaSQL)
	return err
}

// Get implements cart.Store.
func (p *Postgres) Get(ctx context.Context, key string) (*cart.Content, error) {
	if p.db == nil {
		return nil, ErrNotConfigured
	}
	var data []byte
	if err := p.db.QueryRow(ctx, selectSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var content cart.Content
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Put implements cart.Store.
func (p *Postgres) Put(ctx context.Context, key string, content *cart.Content) error {
	if p.db == nil {
		return ErrNotConfigured
	}
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, upsertSQL, key, data)
	return err
}

// Remove implements cart.Store.
func (p *Postgres) Remove(ctx context.Context, key string) error {
	if p.db == nil {
		return ErrNotConfigured
	}
	_, err := p.db.Exec(ctx, deleteSQL, key)
	return err
}
