package paper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository persists account snapshots so a paper account survives
// restarts. Snapshots are stored as msgpack blobs keyed by account ID; only
// the latest snapshot per account is kept.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a repository for account snapshots
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("component", "paper_snapshot_repository").Logger(),
	}
}

// Init creates the snapshots table if it does not exist
func (r *SnapshotRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS account_snapshots (
			account_id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create account_snapshots table: %w", err)
	}
	return nil
}

// Save upserts the snapshot for an account
func (r *SnapshotRepository) Save(ctx context.Context, accountID string, snapshot Snapshot) error {
	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", accountID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO account_snapshots (account_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, accountID, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", accountID, err)
	}

	r.log.Debug().Str("account_id", accountID).Int("bytes", len(data)).Msg("Snapshot saved")
	return nil
}

// Load returns the latest snapshot for an account.
// The bool is false when no snapshot exists.
func (r *SnapshotRepository) Load(ctx context.Context, accountID string) (Snapshot, bool, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT data FROM account_snapshots WHERE account_id = ?
	`, accountID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to load snapshot for %s: %w", accountID, err)
	}

	var snapshot Snapshot
	if err := msgpack.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to decode snapshot for %s: %w", accountID, err)
	}
	return snapshot, true, nil
}
