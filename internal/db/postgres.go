package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// schemaSQL is compiled into the binary at build time so schema init works
// inside runtime images that do not carry the source tree.
//
//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema.sql DDL statements.
func (s *PostgresStore) InitSchema() error {
	_, err := s.pool.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Subscriber schema initialized")
	return nil
}

// GetWatermark returns the persisted watermark for the named subscriber,
// zero when none has been stored yet.
func (s *PostgresStore) GetWatermark(ctx context.Context, name string) (uint64, error) {
	var round int64
	err := s.pool.QueryRow(ctx,
		`SELECT round FROM watermarks WHERE name = $1`, name).Scan(&round)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading watermark %q: %w", name, err)
	}
	return uint64(round), nil
}

// SetWatermark upserts the watermark for the named subscriber.
func (s *PostgresStore) SetWatermark(ctx context.Context, name string, round uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO watermarks (name, round)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET round = EXCLUDED.round, updated_at = NOW();
	`, name, int64(round))
	if err != nil {
		return fmt.Errorf("persisting watermark %q: %w", name, err)
	}
	return nil
}

// Watermark binds a named watermark to the store so it satisfies the
// subscriber's persistence interface.
type Watermark struct {
	store *PostgresStore
	name  string
}

func (s *PostgresStore) Watermark(name string) *Watermark {
	return &Watermark{store: s, name: name}
}

func (w *Watermark) Get(ctx context.Context) (uint64, error) {
	return w.store.GetWatermark(ctx, w.name)
}

func (w *Watermark) Set(ctx context.Context, round uint64) error {
	return w.store.SetWatermark(ctx, w.name, round)
}

// SaveSubscribedTransaction persists a matched transaction with its full JSON
// payload for the API to page through.
func (s *PostgresStore) SaveSubscribedTransaction(ctx context.Context, t *models.SubscribedTransaction) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshalling transaction %s: %w", t.ID, err)
	}

	var parentID *string
	if t.ParentTransactionID != "" {
		parentID = &t.ParentTransactionID
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO subscribed_transactions
			(id, confirmed_round, intra_round_offset, tx_type, sender, filters_matched, parent_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			filters_matched = EXCLUDED.filters_matched,
			payload = EXCLUDED.payload;
	`, t.ID, int64(t.ConfirmedRound), int64(t.IntraRoundOffset), string(t.TxType),
		t.Sender, t.FiltersMatched, parentID, payload)
	if err != nil {
		return fmt.Errorf("failed to insert subscribed transaction: %v", err)
	}
	return nil
}

// StoredTransaction is a persisted match row returned by ListTransactions.
type StoredTransaction struct {
	ID               string          `json:"id"`
	ConfirmedRound   uint64          `json:"confirmed_round"`
	IntraRoundOffset uint64          `json:"intra_round_offset"`
	TxType           string          `json:"tx_type"`
	Sender           string          `json:"sender"`
	FiltersMatched   []string        `json:"filters_matched"`
	Payload          json.RawMessage `json:"payload"`
}

// ListTransactions pages through persisted matches, newest first.
func (s *PostgresStore) ListTransactions(ctx context.Context, page int, limit int) ([]StoredTransaction, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscribed_transactions`).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, confirmed_round, intra_round_offset, tx_type, sender, filters_matched, payload
		FROM subscribed_transactions
		ORDER BY confirmed_round DESC, intra_round_offset DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txns := make([]StoredTransaction, 0)
	for rows.Next() {
		var t StoredTransaction
		var round, intra int64
		if err := rows.Scan(&t.ID, &round, &intra, &t.TxType, &t.Sender, &t.FiltersMatched, &t.Payload); err != nil {
			return nil, 0, err
		}
		t.ConfirmedRound = uint64(round)
		t.IntraRoundOffset = uint64(intra)
		txns = append(txns, t)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return txns, totalCount, nil
}

// GetPool exposes the connection pool for other subsystems
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
