package region

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rating-cli/internal/db"
)

// PostgresSource loads reference data from Postgres. When Pool is nil a
// short-lived pool is opened from URL for the duration of Load.
type PostgresSource struct {
	URL  string
	Pool db.Pool
}

// NewPostgresSource wraps an existing pool. The caller owns pool.
func NewPostgresSource(pool db.Pool) *PostgresSource {
	return &PostgresSource{Pool: pool}
}

// Load implements Source.
func (s *PostgresSource) Load(ctx context.Context) (*Table, error) {
	pool := s.Pool
	if pool == nil {
		p, err := db.Open(ctx, s.URL, 2)
		if err != nil {
			return nil, eris.Wrap(err, "region: postgres source")
		}
		defer p.Close()
		pool = p
	}

	var raw rawRows
	if err := pool.QueryRow(ctx, selectVersion).Scan(&raw.version); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.New("region: database holds no version row, run `regions seed` first")
		}
		return nil, eris.Wrap(err, "postgres: select version")
	}

	rows, err := pool.Query(ctx, selectRegions)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select regions")
	}
	raw.names, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan regions")
	}

	if raw.prefixes, err = pgPairs(ctx, pool, selectPrefixes); err != nil {
		return nil, err
	}
	if raw.subRegions, err = pgPairs(ctx, pool, selectSubRegions); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, selectExactCodes)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select exact codes")
	}
	raw.exact, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (exactRow, error) {
		var e exactRow
		err := row.Scan(&e.group, &e.subRegion, &e.code)
		return e, err
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan exact codes")
	}

	return raw.build()
}

func pgPairs(ctx context.Context, pool db.Pool, query string) ([]pair, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", query)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (pair, error) {
		var p pair
		err := row.Scan(&p.region, &p.value)
		return p, err
	})
	return out, eris.Wrap(err, "postgres: scan rows")
}

// SeedPostgres creates the reference schema and replaces its contents with
// t in one transaction, bulk loading rows with COPY.
func SeedPostgres(ctx context.Context, pool db.Pool, t *Table) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin seed")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, schemaDDL); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	if _, err := tx.Exec(ctx, "TRUNCATE exact_codes, region_sub_regions, region_prefixes, regions, region_meta"); err != nil {
		return eris.Wrap(err, "postgres: truncate")
	}
	if _, err := tx.Exec(ctx, `INSERT INTO region_meta (version) VALUES ($1)`, t.Version()); err != nil {
		return eris.Wrap(err, "postgres: insert version")
	}

	rows := rowsFor(t)
	var total int64
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
		n, err := db.CopyFrom(ctx, tx, batch.table, batch.columns, batch.rows)
		if err != nil {
			return err
		}
		total += n
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit seed")
	}
	zap.L().Info("region: seeded postgres",
		zap.String("version", t.Version()),
		zap.Int64("rows", total),
	)
	return nil
}
