package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrAccountNotFound     = errors.New("account_not_found")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidAmount       = errors.New("invalid_amount")
)

// Entry is one applied balance change. Seq orders the entries of an account
// in the order they were applied, whatever order the journal stores them in.
type Entry struct {
	AccountID string    `json:"account_id"`
	Seq       int64     `json:"seq"`
	Type      string    `json:"type"`
	Delta     Amount    `json:"delta"`
	Balance   Amount    `json:"balance"`
	RefType   string    `json:"ref_type"`
	RefID     string    `json:"ref_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal receives every applied entry. Failures are logged, never rolled back.
type Journal interface {
	RecordLedgerEntry(ctx context.Context, e Entry) error
}

type account struct {
	mu      sync.Mutex
	balance Amount
	seq     int64
}

// AccountState is an account's balance as of its Seq-th entry.
type AccountState struct {
	Balance Amount
	Seq     int64
}

// Ledger serializes balance mutations per account.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*account
	journal  Journal
}

func New(j Journal) *Ledger {
	return &Ledger{accounts: map[string]*account{}, journal: j}
}

// EnsureAccount opens an account with the initial balance unless it
// already exists, and returns the current balance either way. A non-zero
// opening balance is journaled as an "account_opened" entry.
func (l *Ledger) EnsureAccount(id string, initial Amount) Amount {
	if initial.Negative() {
		initial = Amount{}
	}
	l.mu.Lock()
	acc, ok := l.accounts[id]
	if !ok {
		acc = &account{balance: initial}
		if !initial.IsZero() {
			acc.seq = 1
		}
		l.accounts[id] = acc
	}
	l.mu.Unlock()

	acc.mu.Lock()
	bal := acc.balance
	acc.mu.Unlock()
	if !ok && !initial.IsZero() {
		l.record(context.Background(), Entry{AccountID: id, Seq: 1, Type: "account_opened", Delta: initial, Balance: initial})
	}
	return bal
}

// Restore sets an account to a journaled state without writing a new entry.
// It is meant for startup, before any mutation reaches the account.
func (l *Ledger) Restore(id string, st AccountState) {
	if st.Balance.Negative() {
		st.Balance = Amount{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[id] = &account{balance: st.Balance, seq: st.Seq}
}

func (l *Ledger) Balance(id string) (Amount, error) {
	acc := l.get(id)
	if acc == nil {
		return Amount{}, ErrAccountNotFound
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

// Debit subtracts amt in both currencies at once or not at all.
func (l *Ledger) Debit(ctx context.Context, id string, amt Amount, entryType, refType, refID string) (Amount, error) {
	if amt.Negative() {
		return Amount{}, ErrInvalidAmount
	}
	acc := l.get(id)
	if acc == nil {
		return Amount{}, ErrAccountNotFound
	}
	acc.mu.Lock()
	if !acc.balance.Covers(amt) {
		bal := acc.balance
		acc.mu.Unlock()
		return bal, ErrInsufficientBalance
	}
	acc.balance = acc.balance.Sub(amt)
	acc.seq++
	bal, seq := acc.balance, acc.seq
	acc.mu.Unlock()

	l.record(ctx, Entry{AccountID: id, Seq: seq, Type: entryType, Delta: Amount{GC: -amt.GC, SC: -amt.SC}, Balance: bal, RefType: refType, RefID: refID})
	return bal, nil
}

func (l *Ledger) Credit(ctx context.Context, id string, amt Amount, entryType, refType, refID string) (Amount, error) {
	if amt.Negative() {
		return Amount{}, ErrInvalidAmount
	}
	acc := l.get(id)
	if acc == nil {
		return Amount{}, ErrAccountNotFound
	}
	acc.mu.Lock()
	acc.balance = acc.balance.Add(amt)
	acc.seq++
	bal, seq := acc.balance, acc.seq
	acc.mu.Unlock()

	l.record(ctx, Entry{AccountID: id, Seq: seq, Type: entryType, Delta: amt, Balance: bal, RefType: refType, RefID: refID})
	return bal, nil
}

func (l *Ledger) DebitBuyIn(ctx context.Context, playerID, tournamentID string, amt Amount) (Amount, error) {
	return l.Debit(ctx, playerID, amt, "buyin_debit", "tournament", tournamentID)
}

func (l *Ledger) RefundBuyIn(ctx context.Context, playerID, tournamentID string, amt Amount) (Amount, error) {
	return l.Credit(ctx, playerID, amt, "buyin_refund", "tournament", tournamentID)
}

func (l *Ledger) CreditPayout(ctx context.Context, playerID, tournamentID string, amt Amount) (Amount, error) {
	return l.Credit(ctx, playerID, amt, "payout_credit", "tournament", tournamentID)
}

func (l *Ledger) get(id string) *account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[id]
}

func (l *Ledger) record(ctx context.Context, e Entry) {
	if l.journal == nil {
		return
	}
	e.CreatedAt = time.Now().UTC()
	if err := l.journal.RecordLedgerEntry(ctx, e); err != nil {
		log.Warn().
			Err(err).
			Str("account_id", e.AccountID).
			Str("type", e.Type).
			Str("ref_id", e.RefID).
			Msg("ledger journal write failed")
	}
}
