package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

type EntryRepo struct {
	store *Store
}

func (r *EntryRepo) Insert(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.store.do(ctx, func(st *state) error {
		if entry.Status == domain.StatusCompleted && entry.ExternalEventID != nil &&
			st.completedExists(entry.Provider, *entry.ExternalEventID) {
			return fmt.Errorf("%w: completed entry for %s exists", ErrConstraint, *entry.ExternalEventID)
		}
		entry.CreatedAt = r.store.now()
		st.entries = append(st.entries, *entry)
		return nil
	})
}

func (r *EntryRepo) CompletePending(ctx context.Context, provider domain.Provider, pendingRefs []string, externalEventID string, amount int64, patch domain.EntryMetadata) (id string, found bool, err error) {
	err = r.store.do(ctx, func(st *state) error {
		for i := range st.entries {
			e := &st.entries[i]
			if e.Provider != provider || e.ExternalEventID == nil || !slices.Contains(pendingRefs, *e.ExternalEventID) || e.Status != domain.StatusPending {
				continue
			}
			if st.completedExists(provider, externalEventID) {
				return fmt.Errorf("%w: completed entry for %s exists", ErrConstraint, externalEventID)
			}
			meta, err := mergeMetadata(e.Metadata, patch)
			if err != nil {
				return err
			}
			ext := externalEventID
			e.Status = domain.StatusCompleted
			e.ExternalEventID = &ext
			e.Amount = amount
			e.Metadata = meta
			id, found = e.ID, true
			return nil
		}
		return nil
	})
	return id, found, err
}

func (r *EntryRepo) Transition(ctx context.Context, id string, status domain.EntryStatus, patch domain.EntryMetadata) error {
	return r.store.do(ctx, func(st *state) error {
		for i := range st.entries {
			e := &st.entries[i]
			if e.ID != id {
				continue
			}
			if e.Status != domain.StatusPending {
				return domain.ErrEntryNotPending
			}
			if status == domain.StatusCompleted && e.ExternalEventID != nil && st.completedExists(e.Provider, *e.ExternalEventID) {
				return fmt.Errorf("%w: completed entry for %s exists", ErrConstraint, *e.ExternalEventID)
			}
			meta, err := mergeMetadata(e.Metadata, patch)
			if err != nil {
				return err
			}
			e.Status = status
			e.Metadata = meta
			return nil
		}
		return domain.ErrEntryNotPending
	})
}

func (r *EntryRepo) FailPendingByRef(ctx context.Context, provider domain.Provider, ref, reason string) (int64, error) {
	var n int64
	err := r.store.do(ctx, func(st *state) error {
		for i := range st.entries {
			e := &st.entries[i]
			if e.Provider != provider || e.Status != domain.StatusPending {
				continue
			}
			matches := (e.ExternalEventID != nil && *e.ExternalEventID == ref) || e.Metadata.ProviderRef == ref
			if !matches {
				continue
			}
			e.Status = domain.StatusFailed
			e.Metadata.Reason = reason
			n++
		}
		return nil
	})
	return n, err
}

// ListByUser returns entries newest first.
func (r *EntryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := r.store.do(ctx, func(st *state) error {
		for i := len(st.entries) - 1; i >= 0 && len(entries) < limit; i-- {
			if st.entries[i].UserID == userID {
				entries = append(entries, st.entries[i])
			}
		}
		return nil
	})
	return entries, err
}

func (st *state) completedExists(provider domain.Provider, externalEventID string) bool {
	for _, e := range st.entries {
		if e.Provider == provider && e.Status == domain.StatusCompleted &&
			e.ExternalEventID != nil && *e.ExternalEventID == externalEventID {
			return true
		}
	}
	return false
}

// mergeMetadata overlays the fields set in patch, like jsonb concatenation.
func mergeMetadata(base, patch domain.EntryMetadata) (domain.EntryMetadata, error) {
	merged := map[string]json.RawMessage{}
	for _, m := range []domain.EntryMetadata{base, patch} {
		raw, err := json.Marshal(m)
		if err != nil {
			return domain.EntryMetadata{}, fmt.Errorf("marshal entry metadata: %w", err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return domain.EntryMetadata{}, fmt.Errorf("decode entry metadata: %w", err)
		}
		for k, v := range fields {
			merged[k] = v
		}
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return domain.EntryMetadata{}, fmt.Errorf("marshal entry metadata: %w", err)
	}
	var out domain.EntryMetadata
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.EntryMetadata{}, fmt.Errorf("decode entry metadata: %w", err)
	}
	return out, nil
}
