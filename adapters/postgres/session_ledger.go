package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"namedprng/domain/core"
	"namedprng/domain/session"
	"namedprng/ports"

	"github.com/jmoiron/sqlx"
)

// SessionLedgerImpl implements SessionLedger for PostgreSQL. Manifests are
// stored whole as JSONB so replays can reconstruct a session from its row
// alone.
type SessionLedgerImpl struct {
	db *sqlx.DB
}

// NewSessionLedger creates a new PostgreSQL session ledger
func NewSessionLedger(db *sqlx.DB) *SessionLedgerImpl {
	return &SessionLedgerImpl{db: db}
}

// EnsureSchema creates the ledger table when it does not exist yet
func (r *SessionLedgerImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS prng_sessions (
			id UUID PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_prng_sessions_fingerprint ON prng_sessions (fingerprint);
	`)
	return err
}

// StoreManifest persists a session manifest, ignoring replays of the same
// session id
func (r *SessionLedgerImpl) StoreManifest(ctx context.Context, m session.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest %s: %w", m.SessionID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO prng_sessions (id, fingerprint, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, string(m.SessionID), m.Fingerprint.Value.String(), string(payload), m.CreatedAt.Time())

	return err
}

// GetManifest retrieves a manifest by session id
func (r *SessionLedgerImpl) GetManifest(ctx context.Context, id core.SessionID) (*session.Manifest, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `
		SELECT payload FROM prng_sessions WHERE id = $1
	`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("manifest not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	var m session.Manifest
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", id, err)
	}
	return &m, nil
}

// ListManifests returns stored manifests, newest first, optionally limited
func (r *SessionLedgerImpl) ListManifests(ctx context.Context, limit int) ([]session.Manifest, error) {
	query := `
		SELECT payload FROM prng_sessions
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var manifests []session.Manifest
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var m session.Manifest
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("failed to decode stored manifest: %w", err)
		}
		manifests = append(manifests, m)
	}
	return manifests, rows.Err()
}

// Ensure SessionLedgerImpl implements SessionLedger
var _ ports.SessionLedger = (*SessionLedgerImpl)(nil)
