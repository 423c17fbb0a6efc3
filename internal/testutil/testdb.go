// Package testutil opens throwaway Postgres schemas for store tests.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	"sweeps-casino/internal/config"
	"sweeps-casino/internal/ids"
	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testSchemaNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// OpenTestStore opens a store on a fresh schema with every up migration
// applied in order. It skips the test when TEST_POSTGRES_DSN is unset. The
// returned cleanup drops the schema.
func OpenTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	ctx := context.Background()
	dsn := cfg.TestPostgresDSN
	schema := "test_" + strings.ToLower(ids.New())

	if err := execOnBase(ctx, dsn, "CREATE SCHEMA %s", schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	st, err := store.New(withSearchPath(dsn, schema))
	if err != nil {
		_ = execOnBase(ctx, dsn, "DROP SCHEMA %s CASCADE", schema)
		t.Fatalf("open store: %v", err)
	}
	cleanup := func() {
		st.Close()
		_ = execOnBase(ctx, dsn, "DROP SCHEMA %s CASCADE", schema)
	}
	files, err := migrationFiles()
	if err != nil {
		cleanup()
		t.Fatalf("find migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			cleanup()
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := st.Pool.Exec(ctx, string(b)); err != nil {
			cleanup()
			t.Fatalf("apply %s: %v", filepath.Base(f), err)
		}
	}
	return st, cleanup
}

// ReopenLedger builds a ledger from the journal the way the server does at
// startup, so tests can check what survives a restart.
func ReopenLedger(t *testing.T, st *store.Store) *ledger.Ledger {
	t.Helper()
	states, err := st.LatestBalances(context.Background())
	if err != nil {
		t.Fatalf("latest balances: %v", err)
	}
	l := ledger.New(st)
	for id, s := range states {
		l.Restore(id, s)
	}
	return l
}

func execOnBase(ctx context.Context, dsn, format, schema string) error {
	ddl, err := schemaDDL(format, schema)
	if err != nil {
		return err
	}
	base, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer base.Close()
	_, err = base.Exec(ctx, ddl)
	return err
}

// migrationFiles returns the *.up.sql files of the nearest migrations
// directory above the working directory, sorted by name.
func migrationFiles() ([]string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return findMigrations(dir)
}

func findMigrations(dir string) ([]string, error) {
	start := dir
	for i := 0; i < 6; i++ {
		files, err := filepath.Glob(filepath.Join(dir, "migrations", "*.up.sql"))
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			sort.Strings(files)
			return files, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, fmt.Errorf("no migrations found above %s", start)
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

func schemaDDL(format, schema string) (string, error) {
	if !testSchemaNamePattern.MatchString(schema) {
		return "", fmt.Errorf("schema %q does not match required pattern", schema)
	}
	return fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()), nil
}
