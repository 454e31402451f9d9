package ports

import (
	"context"

	"namedprng/domain/core"
	"namedprng/domain/session"
)

// SessionLedger persists session manifests - the truth source used to audit
// and replay recorded runs.
type SessionLedger interface {
	// StoreManifest appends a session manifest to the ledger
	StoreManifest(ctx context.Context, m session.Manifest) error

	// GetManifest loads one manifest by session ID
	GetManifest(ctx context.Context, id core.SessionID) (*session.Manifest, error)

	// ListManifests returns the most recent manifests, newest first
	ListManifests(ctx context.Context, limit int) ([]session.Manifest, error)
}
