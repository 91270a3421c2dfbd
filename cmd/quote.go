package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rating-cli/internal/model"
	"github.com/sells-group/rating-cli/internal/quote"
	"github.com/sells-group/rating-cli/internal/schema"
)

var (
	quoteFile    string
	quoteOutput  string
	quoteLenient bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a risk profile read from a JSON or YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if quoteLenient {
			cfg.Quote.Strict = false
		}
		env, err := initEnv(cmd.Context(), "quote", nil)
		if err != nil {
			return err
		}

		p, err := readProfile(quoteFile)
		if err != nil {
			return err
		}

		res, err := env.Quotes.Quote(p)
		if err != nil {
			var nr *quote.NotReadyError
			if errors.As(err, &nr) {
				renderIssues(cmd.ErrOrStderr(), nr.Issues)
			}
			return err
		}

		return renderResult(cmd.OutOrStdout(), res, quoteOutput)
	},
}

func init() {
	quoteCmd.Flags().StringVarP(&quoteFile, "file", "f", "", "profile file (.json, .yaml or .yml; - for JSON on stdin)")
	quoteCmd.Flags().StringVarP(&quoteOutput, "output", "o", "table", "output format: table or json")
	quoteCmd.Flags().BoolVar(&quoteLenient, "lenient", false, "quote profiles that are not ready instead of refusing them")
	_ = quoteCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(quoteCmd)
}

// readProfile loads a profile from path. JSON input is checked against the
// profile schema; YAML input is decoded with unknown keys rejected.
func readProfile(path string) (model.RiskProfile, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.RiskProfile{}, eris.Wrapf(err, "read profile %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var p model.RiskProfile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return model.RiskProfile{}, eris.Wrapf(err, "decode profile %s", path)
		}
		return p, nil
	default:
		if err := schema.MustNew().Validate(schema.Profile, data); err != nil {
			return model.RiskProfile{}, err
		}
		return model.DecodeProfile(data)
	}
}

func renderResult(w io.Writer, res *quote.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "table":
		return renderTable(w, res)
	default:
		return eris.Errorf("unknown output format %q", format)
	}
}

// renderTable prints the breakdown with grouped digits.
func renderTable(w io.Writer, res *quote.Result) error {
	p := message.NewPrinter(language.English)
	title := cases.Title(language.English)
	b := res.Breakdown

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	line := func(label, format string, args ...any) {
		fmt.Fprintf(tw, "%s\t%s\n", label, p.Sprintf(format, args...))
	}

	line("Quote", "%s", res.ID)
	line("Plan", "%s", b.PlanType.DisplayName())
	line("IDV", "₹%d%s", b.IDV, estimated(b.IDVEstimated))
	line("Base premium", "₹%d", b.BasePremium)
	line("Factors", "location %.2f × age %.2f × experience %.2f × credit %.2f × vehicle age %.2f",
		b.Factors.Location, b.Factors.Age, b.Factors.Experience, b.Factors.Credit, b.Factors.VehicleAge)
	line("Credit band", "%s", b.CreditBand)
	line("Adjusted premium", "₹%.2f", b.AdjustedPremium)
	if b.DeductibleDiscount > 0 {
		line("Deductible discount", "−₹%.2f (%.0f%%)", b.DeductibleDiscount, b.DeductibleDiscountRate*100)
	}
	for _, a := range b.AddOns {
		line("  "+a.Name, "₹%d", a.Cost)
	}
	if b.VerificationDiscountRate > 0 {
		line("Verification discount", "%.0f%%", b.VerificationDiscountRate*100)
	}
	line("Final premium", "₹%d", b.FinalPremium)
	line("GST", "₹%d", b.Tax)
	line("Total payable", "₹%d", b.TotalPayable)
	fmt.Fprintln(tw)

	for _, c := range res.Market.Competitors {
		line(c.Company, "₹%d (%s)", c.Premium, title.String(string(c.Standing)))
	}
	line("Market average", "₹%d", res.Market.AvgMarketPremium)
	line("You save", "₹%d (%d%%)", res.Market.Savings, res.Market.SavingsPercentage)

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "write quote table")
	}
	if len(res.Issues) > 0 {
		renderIssues(w, res.Issues)
	}
	return nil
}

func renderIssues(w io.Writer, issues []model.FieldError) {
	fmt.Fprintf(w, "\n%d issue(s):\n", len(issues))
	for _, is := range issues {
		fmt.Fprintf(w, "  %s [%s] %s\n", is.Field, is.Code, is.Message)
	}
}

func estimated(b bool) string {
	if b {
		return " (estimated)"
	}
	return ""
}
