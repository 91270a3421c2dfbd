package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/rating-cli/internal/location"
)

var (
	validateRegion    string
	validateSubRegion string
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Resolve and validate postal codes",
}

var locationResolveCmd = &cobra.Command{
	Use:   "resolve <code>",
	Short: "Show the region (and sub-region, when known) for a full or partial postal code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "quote", nil)
		if err != nil {
			return err
		}
		return printResolution(cmd.OutOrStdout(), env.Resolver, args[0])
	},
}

var locationValidateCmd = &cobra.Command{
	Use:   "validate <code>",
	Short: "Check that a postal code belongs to a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "quote", nil)
		if err != nil {
			return err
		}
		return printValidation(cmd.OutOrStdout(), env.Resolver, validateRegion, validateSubRegion, args[0])
	},
}

func init() {
	locationValidateCmd.Flags().StringVar(&validateRegion, "region", "", "region the code should belong to")
	locationValidateCmd.Flags().StringVar(&validateSubRegion, "sub-region", "", "sub-region (checked against the region's list)")
	_ = locationValidateCmd.MarkFlagRequired("region")

	locationCmd.AddCommand(locationResolveCmd, locationValidateCmd)
	rootCmd.AddCommand(locationCmd)
}

func printResolution(w io.Writer, r *location.Resolver, raw string) error {
	code := location.Sanitize(raw)
	if code == "" {
		return fmt.Errorf("no digits in %q", raw)
	}

	res, ok := r.Resolve(code)
	switch {
	case !ok:
		fmt.Fprintf(w, "%s (%s): no region\n", code, location.StageOf(code))
		if len(code) < 3 {
			if c := r.Table().RegionsMatching(code); len(c) > 1 {
				fmt.Fprintf(w, "  candidates: %v\n", c)
			}
		}
	case res.SubRegion != "":
		fmt.Fprintf(w, "%s (%s): %s, %s\n", code, location.StageOf(code), res.SubRegion, res.Region)
	default:
		fmt.Fprintf(w, "%s (%s): %s\n", code, location.StageOf(code), res.Region)
	}
	return nil
}

func printValidation(w io.Writer, r *location.Resolver, regionName, subRegion, code string) error {
	if err := r.Validate(regionName, subRegion, code); err != nil {
		var me *location.MismatchError
		if errors.As(err, &me) {
			fmt.Fprintf(w, "invalid (%s): %s\n", me.Reason, me.Error())
		}
		return err
	}
	if subRegion != "" && !r.Table().HasSubRegion(regionName, subRegion) {
		fmt.Fprintf(w, "valid, but %s is not a sub-region of %s\n", subRegion, regionName)
		return nil
	}
	fmt.Fprintf(w, "valid: %s belongs to %s\n", code, regionName)
	return nil
}
