package store

import (
	"context"
	"time"

	"sweeps-casino/internal/ids"
	"sweeps-casino/internal/ledger"
)

// RecordLedgerEntry appends one applied balance change. It satisfies
// ledger.Journal. A replayed (account, seq) pair is ignored.
func (s *Store) RecordLedgerEntry(ctx context.Context, e ledger.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	id := ids.New()
	return withRetry(ctx, "record_ledger_entry", func(ctx context.Context) error {
		_, err := s.Pool.Exec(ctx, `
INSERT INTO ledger_entries (id, account_id, seq, type, delta_gc, delta_sc, balance_gc, balance_sc, ref_type, ref_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT DO NOTHING`,
			id, e.AccountID, e.Seq, e.Type, e.Delta.GC, e.Delta.SC, e.Balance.GC, e.Balance.SC, e.RefType, e.RefID, e.CreatedAt)
		return err
	})
}

// ListLedgerEntries returns the newest entries, for one account or all of
// them when accountID is empty.
func (s *Store) ListLedgerEntries(ctx context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
SELECT account_id, seq, type, delta_gc, delta_sc, balance_gc, balance_sc, ref_type, ref_id, created_at
FROM ledger_entries
WHERE ($1 = '' OR account_id = $1)
ORDER BY created_at DESC, account_id, seq DESC
LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ledger.Entry{}
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.AccountID, &e.Seq, &e.Type, &e.Delta.GC, &e.Delta.SC, &e.Balance.GC, &e.Balance.SC, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestBalances returns each account's state after its highest-seq entry,
// used to reopen ledger accounts at startup. Write order does not matter.
func (s *Store) LatestBalances(ctx context.Context) (map[string]ledger.AccountState, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT DISTINCT ON (account_id) account_id, seq, balance_gc, balance_sc
FROM ledger_entries
ORDER BY account_id, seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]ledger.AccountState{}
	for rows.Next() {
		var id string
		var st ledger.AccountState
		if err := rows.Scan(&id, &st.Seq, &st.Balance.GC, &st.Balance.SC); err != nil {
			return nil, err
		}
		out[id] = st
	}
	return out, rows.Err()
}
