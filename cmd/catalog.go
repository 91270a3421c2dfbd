package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/rating-cli/internal/rating"
)

var catalogOutput string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show plans, add-ons, deductibles and credit bands",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCatalog(cmd.OutOrStdout(), rating.NewCatalog(), catalogOutput)
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogOutput, "output", "o", "table", "output format: table or json")
	rootCmd.AddCommand(catalogCmd)
}

func printCatalog(w io.Writer, c rating.Catalog, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case "table":
	default:
		return eris.Errorf("unknown output format %q", format)
	}

	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "PLAN\tBASE\tDESCRIPTION")
	for _, pl := range c.Plans {
		p.Fprintf(tw, "%s\t₹%d\t%s\n", pl.Name, pl.BasePrice, pl.Description)
	}
	fmt.Fprintln(tw, "\nADD-ON\tPRICE\t")
	for _, a := range c.AddOns {
		p.Fprintf(tw, "%s\t₹%d\t\n", a.Name, a.Price)
	}
	fmt.Fprintln(tw, "\nDEDUCTIBLE\tDISCOUNT\t")
	for _, d := range c.Deductibles {
		p.Fprintf(tw, "₹%d\t%.0f%%\t\n", d.Amount, d.DiscountPercent)
	}
	fmt.Fprintln(tw, "\nCREDIT BAND\tSCORES\t")
	for _, b := range c.CreditBands {
		fmt.Fprintf(tw, "%s\t%d-%d\t\n", b.Label, b.Min, b.Max)
	}
	fmt.Fprintf(tw, "\nGST\t%.0f%%\t\n", c.TaxPercent)

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write catalog table")
	}
	return nil
}
