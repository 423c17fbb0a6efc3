package store_test

import (
	"context"
	"testing"

	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/testutil"
)

func TestLedgerJournalRecordsEntries(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	l := ledger.New(st)
	l.EnsureAccount("p1", ledger.Amount{GC: 1000, SC: 10})
	if _, err := l.DebitBuyIn(ctx, "p1", "t1", ledger.Amount{GC: 400, SC: 4}); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := l.CreditPayout(ctx, "p1", "t1", ledger.Amount{GC: 100}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	entries, err := st.ListLedgerEntries(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	bySeq := map[int64]ledger.Entry{}
	for _, e := range entries {
		bySeq[e.Seq] = e
	}
	if bySeq[1].Type != "account_opened" || bySeq[2].Delta != (ledger.Amount{GC: -400, SC: -4}) || bySeq[3].Delta.GC != 100 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	balances, err := st.LatestBalances(ctx)
	if err != nil {
		t.Fatalf("latest balances: %v", err)
	}
	if balances["p1"] != (ledger.AccountState{Balance: ledger.Amount{GC: 700, SC: 6}, Seq: 3}) {
		t.Fatalf("latest balance = %+v", balances["p1"])
	}
}

func TestLatestBalancesFollowSeqNotWriteOrder(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	// Entries land in storage newest first, as a slow concurrent write would
	// leave them.
	for _, e := range []ledger.Entry{
		{AccountID: "a", Seq: 3, Type: "bet_debit", Delta: ledger.Amount{GC: -1}, Balance: ledger.Amount{GC: 96}},
		{AccountID: "a", Seq: 1, Type: "account_opened", Delta: ledger.Amount{GC: 99}, Balance: ledger.Amount{GC: 99}},
		{AccountID: "a", Seq: 2, Type: "bet_debit", Delta: ledger.Amount{GC: -2}, Balance: ledger.Amount{GC: 97}},
		{AccountID: "b", Seq: 1, Type: "admin_topup", Delta: ledger.Amount{SC: 5}, Balance: ledger.Amount{SC: 5}},
	} {
		if err := st.RecordLedgerEntry(ctx, e); err != nil {
			t.Fatalf("record %+v: %v", e, err)
		}
	}
	if err := st.RecordLedgerEntry(ctx, ledger.Entry{AccountID: "a", Seq: 3, Type: "bet_debit", Balance: ledger.Amount{GC: 1}}); err != nil {
		t.Fatalf("replayed entry: %v", err)
	}

	balances, err := st.LatestBalances(ctx)
	if err != nil {
		t.Fatalf("latest balances: %v", err)
	}
	if got := balances["a"]; got.Seq != 3 || got.Balance != (ledger.Amount{GC: 96}) {
		t.Fatalf("account a = %+v", got)
	}
	if got := balances["b"]; got.Balance != (ledger.Amount{SC: 5}) {
		t.Fatalf("account b = %+v", got)
	}

	l := testutil.ReopenLedger(t, st)
	if got, err := l.Balance("a"); err != nil || got != (ledger.Amount{GC: 96}) {
		t.Fatalf("reopened balance = %+v, %v", got, err)
	}
	if _, err := l.Debit(ctx, "a", ledger.Amount{GC: 6}, "bet_debit", "", ""); err != nil {
		t.Fatalf("debit after reopen: %v", err)
	}
	balances, err = st.LatestBalances(ctx)
	if err != nil {
		t.Fatalf("latest balances: %v", err)
	}
	if got := balances["a"]; got.Seq != 4 || got.Balance != (ledger.Amount{GC: 90}) {
		t.Fatalf("account a after reopen = %+v", got)
	}
}
