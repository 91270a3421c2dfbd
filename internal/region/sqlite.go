package region

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteSource loads reference data from a SQLite database.
type SQLiteSource struct {
	DSN string

	db *sql.DB
}

// NewSQLiteSource wraps an already open database. The caller owns db.
func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

// OpenSQLite opens a SQLite database at dsn and configures WAL mode.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return db, nil
}

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context) (*Table, error) {
	db := s.db
	if db == nil {
		opened, err := OpenSQLite(s.DSN)
		if err != nil {
			return nil, err
		}
		defer opened.Close()
		db = opened
	}

	var raw rawRows
	if err := db.QueryRowContext(ctx, selectVersion).Scan(&raw.version); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.New("region: database holds no version row, run `regions seed` first")
		}
		return nil, eris.Wrap(err, "sqlite: select version")
	}

	names, err := sqliteStrings(ctx, db, selectRegions)
	if err != nil {
		return nil, err
	}
	raw.names = names

	if raw.prefixes, err = sqlitePairs(ctx, db, selectPrefixes); err != nil {
		return nil, err
	}
	if raw.subRegions, err = sqlitePairs(ctx, db, selectSubRegions); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectExactCodes)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select exact codes")
	}
	defer rows.Close()
	for rows.Next() {
		var e exactRow
		if err := rows.Scan(&e.group, &e.subRegion, &e.code); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan exact code")
		}
		raw.exact = append(raw.exact, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate exact codes")
	}

	return raw.build()
}

func sqliteStrings(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select regions")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan region")
		}
		out = append(out, s)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate regions")
}

func sqlitePairs(ctx context.Context, db *sql.DB, query string) ([]pair, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", query)
	}
	defer rows.Close()

	var out []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.region, &p.value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate rows")
}

// SeedSQLite creates the reference schema in db and replaces its contents
// with t, in one transaction.
func SeedSQLite(ctx context.Context, db *sql.DB, t *Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin seed")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	for _, table := range seedTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO region_meta (version) VALUES (?)`, t.Version()); err != nil {
		return eris.Wrap(err, "sqlite: insert version")
	}

	rows := rowsFor(t)
	for _, batch := range []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{"regions", regionColumns, rows.regions},
		{"region_prefixes", prefixColumns, rows.prefixes},
		{"region_sub_regions", subRegionColumns, rows.subRegions},
		{"exact_codes", exactColumns, rows.exact},
	} {
		if err := sqliteInsert(ctx, tx, batch.table, batch.columns, batch.rows); err != nil {
			return err
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit seed")
}

func sqliteInsert(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), marks))
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", table)
		}
	}
	return nil
}
