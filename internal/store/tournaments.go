package store

import (
	"context"
	"encoding/json"
	"errors"

	"sweeps-casino/internal/tournament"

	"github.com/jackc/pgx/v5"
)

// TournamentRepository persists scheduler snapshots as JSONB documents. It
// satisfies tournament.Repository and tournament.ResultRecorder.
type TournamentRepository struct {
	st *Store
}

func NewTournamentRepository(st *Store) *TournamentRepository {
	return &TournamentRepository{st: st}
}

// Save upserts the snapshot unless a newer version is already stored.
func (r *TournamentRepository) Save(ctx context.Context, t *tournament.Tournament) error {
	if t == nil {
		return nil
	}
	doc, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return withRetry(ctx, "save_tournament", func(ctx context.Context) error {
		_, err := r.st.Pool.Exec(ctx, `
INSERT INTO tournaments (id, slug, name, game_type, status, version, snapshot, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (id) DO UPDATE SET
	slug = EXCLUDED.slug,
	name = EXCLUDED.name,
	game_type = EXCLUDED.game_type,
	status = EXCLUDED.status,
	version = EXCLUDED.version,
	snapshot = EXCLUDED.snapshot,
	updated_at = now()
WHERE tournaments.version <= EXCLUDED.version`,
			t.ID, t.Slug, t.Name, string(t.GameType), string(t.Status), t.Version, doc, t.CreatedAt)
		return err
	})
}

func (r *TournamentRepository) Get(ctx context.Context, id string) (*tournament.Tournament, error) {
	var doc []byte
	err := withRetry(ctx, "get_tournament", func(ctx context.Context) error {
		return r.st.Pool.QueryRow(ctx, `SELECT snapshot FROM tournaments WHERE id = $1`, id).Scan(&doc)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tournament.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t tournament.Tournament
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TournamentRepository) List(ctx context.Context, f tournament.Filter) ([]*tournament.Tournament, error) {
	var out []*tournament.Tournament
	err := withRetry(ctx, "list_tournaments", func(ctx context.Context) error {
		rows, err := r.st.Pool.Query(ctx, `
SELECT snapshot FROM tournaments
WHERE ($1 = '' OR game_type = $1) AND ($2 = '' OR status = $2)
ORDER BY created_at ASC, id ASC`, string(f.GameType), string(f.Status))
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var doc []byte
			if err := rows.Scan(&doc); err != nil {
				return err
			}
			var t tournament.Tournament
			if err := json.Unmarshal(doc, &t); err != nil {
				return err
			}
			out = append(out, &t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TournamentRepository) Delete(ctx context.Context, id string) error {
	return withRetry(ctx, "delete_tournament", func(ctx context.Context) error {
		_, err := r.st.Pool.Exec(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
		return err
	})
}

// SaveResult stores the finished result once. Later calls for the same
// tournament are ignored.
func (r *TournamentRepository) SaveResult(ctx context.Context, res tournament.TournamentResult) error {
	doc, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return withRetry(ctx, "save_result", func(ctx context.Context) error {
		_, err := r.st.Pool.Exec(ctx, `
INSERT INTO tournament_results (tournament_id, result, finished_at)
VALUES ($1, $2, $3)
ON CONFLICT (tournament_id) DO NOTHING`, res.TournamentID, doc, res.FinishedAt)
		return err
	})
}

func (r *TournamentRepository) GetResult(ctx context.Context, tournamentID string) (*tournament.TournamentResult, error) {
	var doc []byte
	err := r.st.Pool.QueryRow(ctx, `SELECT result FROM tournament_results WHERE tournament_id = $1`, tournamentID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var res tournament.TournamentResult
	if err := json.Unmarshal(doc, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
