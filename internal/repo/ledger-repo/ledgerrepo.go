package ledgerrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
	"github.com/GlebRadaev/creditsettle/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, entry *domain.LedgerEntry) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal entry metadata: %w", err)
	}
	query := `
        INSERT INTO ledger_entries (id, user_id, external_event_id, provider, kind, amount, status, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at
    `
	err = r.db.QueryRow(ctx, query,
		entry.ID, entry.UserID, entry.ExternalEventID, string(entry.Provider),
		string(entry.Kind), entry.Amount, string(entry.Status), meta,
	).Scan(&entry.CreatedAt)
	if err != nil {
		zap.L().Error("failed to insert ledger entry",
			zap.String("user_id", entry.UserID), zap.String("kind", string(entry.Kind)), zap.Error(err))
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// CompletePending completes the oldest pending entry keyed by one of
// pendingRefs in place and rekeys it to externalEventID. found is false when
// there is none.
func (r *Repository) CompletePending(ctx context.Context, provider domain.Provider, pendingRefs []string, externalEventID string, amount int64, patch domain.EntryMetadata) (id string, found bool, err error) {
	meta, err := json.Marshal(patch)
	if err != nil {
		return "", false, fmt.Errorf("marshal entry metadata: %w", err)
	}
	query := `
        UPDATE ledger_entries
        SET status = 'completed', external_event_id = $3, amount = $4, metadata = metadata || $5::jsonb
        WHERE id = (
            SELECT id FROM ledger_entries
            WHERE provider = $1 AND external_event_id = ANY($2) AND status = 'pending'
            ORDER BY created_at
            LIMIT 1
            FOR UPDATE
        )
        RETURNING id::text
    `
	err = r.db.QueryRow(ctx, query, string(provider), pendingRefs, externalEventID, amount, meta).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		zap.L().Error("failed to complete pending ledger entry",
			zap.String("external_event_id", externalEventID), zap.Error(err))
		return "", false, fmt.Errorf("complete pending entry: %w", err)
	}
	return id, true, nil
}

// Transition moves a pending entry to status. Settled entries are immutable.
func (r *Repository) Transition(ctx context.Context, id string, status domain.EntryStatus, patch domain.EntryMetadata) error {
	meta, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal entry metadata: %w", err)
	}
	query := `
        UPDATE ledger_entries
        SET status = $2, metadata = metadata || $3::jsonb
        WHERE id = $1 AND status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query, id, string(status), meta)
	if err != nil {
		zap.L().Error("failed to transition ledger entry", zap.String("entry_id", id), zap.Error(err))
		return fmt.Errorf("transition entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotPending
	}
	return nil
}

func (r *Repository) FailPendingByRef(ctx context.Context, provider domain.Provider, ref, reason string) (int64, error) {
	meta, err := json.Marshal(domain.EntryMetadata{Reason: reason})
	if err != nil {
		return 0, fmt.Errorf("marshal entry metadata: %w", err)
	}
	query := `
        UPDATE ledger_entries
        SET status = 'failed', metadata = metadata || $3::jsonb
        WHERE provider = $1 AND status = 'pending'
          AND (external_event_id = $2 OR metadata->>'provider_ref' = $2)
    `
	tag, err := r.db.Exec(ctx, query, string(provider), ref, meta)
	if err != nil {
		zap.L().Error("failed to fail pending ledger entries", zap.String("ref", ref), zap.Error(err))
		return 0, fmt.Errorf("fail pending entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	query := `
        SELECT id::text, user_id, external_event_id, provider, kind, amount, status, metadata, created_at
        FROM ledger_entries
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		zap.L().Error("failed to list ledger entries", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			entry                  domain.LedgerEntry
			provider, kind, status string
			meta                   []byte
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.ExternalEventID, &provider, &kind,
			&entry.Amount, &status, &meta, &entry.CreatedAt); err != nil {
			zap.L().Error("failed to scan ledger entry", zap.Error(err))
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("decode entry metadata: %w", err)
			}
		}
		entry.Provider = domain.Provider(provider)
		entry.Kind = domain.EntryKind(kind)
		entry.Status = domain.EntryStatus(status)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
