package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage persists the conversation as one JSONB document per
// profile.
type PostgresStorage struct {
	pool      *pgxpool.Pool
	profileID string
}

func NewPostgresStorage(ctx context.Context, databaseURL, profileID string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool, profileID: profileID}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_state (
			profile_id TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (p *PostgresStorage) Load(ctx context.Context) (ConversationState, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT state FROM conversation_state WHERE profile_id=$1`,
		p.profileID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ConversationState{}, nil
	}
	if err != nil {
		return ConversationState{}, fmt.Errorf("query conversation state: %w", err)
	}

	var state ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return ConversationState{}, fmt.Errorf("%w: profile %s: %v", ErrCorruptState, p.profileID, err)
	}
	return state, nil
}

func (p *PostgresStorage) Save(ctx context.Context, state ConversationState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO conversation_state (profile_id, state, updated_at)
		 VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (profile_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		p.profileID,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save conversation state: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
