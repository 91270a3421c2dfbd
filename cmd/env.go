package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rating-cli/internal/location"
	"github.com/sells-group/rating-cli/internal/metrics"
	"github.com/sells-group/rating-cli/internal/quote"
	"github.com/sells-group/rating-cli/internal/rating"
	"github.com/sells-group/rating-cli/internal/region"
	"github.com/sells-group/rating-cli/internal/resilience"
)

// appEnv holds the services a command needs.
type appEnv struct {
	Table    *region.Table
	Resolver *location.Resolver
	Engine   *rating.Engine
	Quotes   *quote.Service
}

// initEnv validates the config for mode, loads the region table from the
// configured source and wires the quote service.
func initEnv(ctx context.Context, mode string, m *metrics.Metrics) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	src, err := region.NewSource(cfg.Regions.Source, cfg.Regions.Path, cfg.Regions.DatabaseURL)
	if err != nil {
		return nil, err
	}
	tbl, err := loadTable(ctx, src, cfg.Regions.LoadAttempts)
	if err != nil {
		return nil, eris.Wrap(err, "load region tables")
	}

	st := tbl.Stats()
	zap.L().Info("region tables loaded",
		zap.String("source", cfg.Regions.Source),
		zap.String("version", st.Version),
		zap.Int("regions", st.Regions),
		zap.Int("exact_codes", st.ExactCodes),
	)

	resolver := location.NewResolver(tbl)
	engine := rating.NewEngine(rating.WithYear(cfg.Quote.AsOfYear))
	return &appEnv{
		Table:    tbl,
		Resolver: resolver,
		Engine:   engine,
		Quotes:   quote.NewService(resolver, engine, quote.WithStrict(cfg.Quote.Strict), quote.WithMetrics(m)),
	}, nil
}

// loadTable loads from src, retrying transient failures of database
// sources up to attempts times. Zero keeps the default policy.
func loadTable(ctx context.Context, src region.Source, attempts int) (*region.Table, error) {
	switch src.(type) {
	case *region.SQLiteSource, *region.PostgresSource:
	default:
		return src.Load(ctx)
	}

	p := resilience.DefaultPolicy()
	if attempts > 0 {
		p.Attempts = attempts
	}
	p.OnRetry = resilience.LogRetries("load region tables")
	return resilience.Retry(ctx, p, src.Load)
}
