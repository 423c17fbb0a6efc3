package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("not found")

const (
	retryAttempts = 3
	connectWait   = 30 * time.Second
)

// Store wraps DB access.
type Store struct {
	Pool *pgxpool.Pool
}

// New opens a pool and waits for the database to answer a ping, backing off
// between attempts for up to connectWait.
func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	st := &Store{Pool: pool}
	b := &backoff.Backoff{Min: 100 * time.Millisecond, Max: 5 * time.Second, Factor: 2, Jitter: true}
	deadline := time.Now().Add(connectWait)
	for {
		err = st.Ping(context.Background())
		if err == nil {
			return st, nil
		}
		if time.Now().After(deadline) {
			pool.Close()
			return nil, err
		}
		d := b.Duration()
		log.Warn().Err(err).Dur("retry_in", d).Msg("postgres not ready")
		time.Sleep(d)
	}
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// withRetry runs fn up to retryAttempts times. Not-found, constraint
// violations and context errors are returned at once.
func withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	b := &backoff.Backoff{Min: 50 * time.Millisecond, Max: time.Second, Factor: 2, Jitter: true}
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == retryAttempts {
			break
		}
		d := b.Duration()
		log.Debug().Err(err).Str("op", op).Int("attempt", attempt).Dur("retry_in", d).Msg("store retry")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 23: integrity constraint violation, class 42: syntax or access rule
		return pgErr.Code[:2] != "23" && pgErr.Code[:2] != "42"
	}
	return true
}
