// Command jbctl is the offline companion to the console server: it renders
// documents from exported JSON, prints the stage registry and prices quotes.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/quote"
	"github.com/jaybesin/logistics-console/internal/shipment"
	"github.com/jaybesin/logistics-console/internal/stages"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("jbctl failed")
		os.Exit(1)
	}
}

// rootOptions holds the flags every subcommand sees.
type rootOptions struct {
	settingsPath string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "jbctl",
		Short:         "JayBesin logistics console tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "JSON settings file overlaid on the defaults")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newStagesCmd(),
		newTrackingNumberCmd(),
		newQuoteCmd(opts),
		newDocumentCmd(opts),
	)
	return root
}

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Print the shipment stages with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stage registry v%d\n", stages.Version)
			for i, s := range stages.All() {
				fmt.Fprintf(out, "%2d  %3d%%  %s\n", i+1, stages.ProgressPercent(s), s)
			}
			return nil
		},
	}
}

func newTrackingNumberCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "tracking-number",
		Short: "Generate fresh tracking numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			for i := 0; i < count; i++ {
				fmt.Fprintln(cmd.OutOrStdout(), shipment.GenerateTrackingNumber(nil))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many numbers to print")
	return cmd
}

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price sea or air freight",
	}

	sea := &cobra.Command{
		Use:   "sea LENGTH WIDTH HEIGHT",
		Short: "Price a box measured in centimetres",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dims, err := parseFloats(args)
			if err != nil {
				return err
			}
			settings, err := loadSettings(opts.settingsPath)
			if err != nil {
				return err
			}
			q, err := quote.Sea(dims[0], dims[1], dims[2], settings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f CBM x $%.2f = $%.2f\n", q.CBM, q.Rate, q.Cost)
			return nil
		},
	}

	var category string
	air := &cobra.Command{
		Use:   "air WEIGHT_KG",
		Short: "Price a parcel by weight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseFloats(args)
			if err != nil {
				return err
			}
			settings, err := loadSettings(opts.settingsPath)
			if err != nil {
				return err
			}
			q, err := quote.Air(w[0], category, settings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f kg %s x $%.2f = $%.2f\n", q.WeightKG, q.Category, q.Rate, q.Cost)
			return nil
		},
	}
	air.Flags().StringVar(&category, "category", string(quote.AirNormal), "normal, battery or express")

	cmd.AddCommand(sea, air)
	return cmd
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", a)
		}
		out[i] = v
	}
	return out, nil
}

// loadSettings reads a settings export. Fields missing from the file keep
// their default values.
func loadSettings(path string) (models.Settings, error) {
	settings := models.DefaultSettings()
	if path == "" {
		return settings, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return settings, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return settings, nil
}
