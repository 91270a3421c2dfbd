package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/rating-cli/internal/db"
	"github.com/sells-group/rating-cli/internal/region"
)

var (
	seedDriver string
	seedDSN    string
	seedFrom   string
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Inspect and seed the postal reference tables",
}

var regionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List regions from the configured source",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "quote", nil)
		if err != nil {
			return err
		}
		return printRegions(cmd.OutOrStdout(), env.Table)
	},
}

var regionsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the reference tables into SQLite or Postgres",
	Long:  "Loads the embedded tables (or --from a YAML file) and replaces the contents of the region tables in the target database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("seed"); err != nil {
			return err
		}
		t, err := seedSource(cmd.Context(), seedFrom)
		if err != nil {
			return err
		}
		dsn := seedDSN
		if dsn == "" {
			dsn = cfg.Regions.DatabaseURL
		}
		if err := seedRegions(cmd.Context(), seedDriver, dsn, t); err != nil {
			return err
		}
		st := t.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %s tables version %s: %d regions, %d prefixes, %d sub-regions, %d exact codes\n",
			seedDriver, st.Version, st.Regions, st.Prefixes, st.SubRegions, st.ExactCodes)
		return nil
	},
}

func init() {
	regionsSeedCmd.Flags().StringVar(&seedDriver, "driver", region.SourceSQLite, "target database: sqlite or postgres")
	regionsSeedCmd.Flags().StringVar(&seedDSN, "dsn", "", "target database DSN (default regions.database_url)")
	regionsSeedCmd.Flags().StringVar(&seedFrom, "from", "", "YAML file to seed from (default embedded tables)")

	regionsCmd.AddCommand(regionsListCmd, regionsSeedCmd)
	rootCmd.AddCommand(regionsCmd)
}

func seedSource(ctx context.Context, path string) (*region.Table, error) {
	if path == "" {
		return region.Embedded()
	}
	return region.FileSource{Path: path}.Load(ctx)
}

func seedRegions(ctx context.Context, driver, dsn string, t *region.Table) error {
	if dsn == "" {
		return eris.New("regions seed: --dsn or regions.database_url is required")
	}
	log := zap.L().With(zap.String("driver", driver))

	switch driver {
	case region.SourceSQLite:
		conn, err := region.OpenSQLite(dsn)
		if err != nil {
			return err
		}
		defer conn.Close() //nolint:errcheck
		if err := region.SeedSQLite(ctx, conn, t); err != nil {
			return err
		}
	case region.SourcePostgres:
		pool, err := db.Open(ctx, dsn, 2)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := region.SeedPostgres(ctx, pool, t); err != nil {
			return err
		}
	default:
		return eris.Errorf("regions seed: unknown driver %q (want sqlite or postgres)", driver)
	}

	log.Info("region tables seeded", zap.String("version", t.Version()))
	return nil
}

func printRegions(w io.Writer, t *region.Table) error {
	p := message.NewPrinter(language.English)
	st := t.Stats()
	p.Fprintf(w, "version %s: %d regions, %d exact codes\n\n", st.Version, st.Regions, st.ExactCodes)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tPREFIXES\tSUB-REGIONS")
	for _, name := range t.Names() {
		r, _ := t.Region(name)
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Name, strings.Join(r.Prefixes, " "), len(r.SubRegions))
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write region table")
	}
	return nil
}
