package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dostavka/selection-service/internal/catalog"
	"github.com/dostavka/selection-service/internal/selection"
)

var (
	simSearchFile  string
	simPricingFile string
	simCity        string
	simLat         float64
	simLng         float64
	simSkus        []string
	simNow         string
	simOutput      string
	simVerbose     bool
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the delivery option selection pipeline against fixture files",
	Long: `Run the full selection pipeline using local JSON fixtures in place of the
search and pricing services. The search fixture holds the pharmacy list a
search call would return; the pricing fixture maps pharmacy source codes to
their delivery options.

SKUs are given as sku:count pairs, e.g. --sku 11343:2 --sku 9007:1.`,
	Example: `  selection-service simulate --search-file pharmacies.json --pricing-file pricing.json \
    --city almaty --lat 43.23 --lng 76.88 --sku 11343:2 --sku 9007:1
  selection-service simulate --search-file pharmacies.json --pricing-file pricing.json \
    --city almaty --lat 43.23 --lng 76.88 --sku 11343:1 --now 2026-08-30T18:30:00Z --output json`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simSearchFile, "search-file", "", "JSON file with the search response pharmacies (required)")
	simulateCmd.Flags().StringVar(&simPricingFile, "pricing-file", "", "JSON file mapping source codes to delivery options (required)")
	simulateCmd.Flags().StringVar(&simCity, "city", "almaty", "City identifier passed to the pipeline")
	simulateCmd.Flags().Float64Var(&simLat, "lat", 0, "Delivery address latitude (required)")
	simulateCmd.Flags().Float64Var(&simLng, "lng", 0, "Delivery address longitude (required)")
	simulateCmd.Flags().StringSliceVar(&simSkus, "sku", nil, "Requested line as sku:count, repeatable (required)")
	simulateCmd.Flags().StringVar(&simNow, "now", "", "Override the evaluation instant, RFC3339 (default: wall clock)")
	simulateCmd.Flags().StringVar(&simOutput, "output", "table", "Output format: table or json")
	simulateCmd.Flags().BoolVar(&simVerbose, "verbose", false, "Log per-stage candidate counts")
	simulateCmd.MarkFlagRequired("search-file")
	simulateCmd.MarkFlagRequired("pricing-file")
	simulateCmd.MarkFlagRequired("lat")
	simulateCmd.MarkFlagRequired("lng")
	simulateCmd.MarkFlagRequired("sku")
}

// fixtureSearch serves a canned pharmacy list regardless of the query.
type fixtureSearch struct {
	pharmacies []catalog.Pharmacy
}

func (f *fixtureSearch) Search(ctx context.Context, city string, skus []catalog.SkuRequest) ([]catalog.Pharmacy, error) {
	return f.pharmacies, nil
}

// fixturePricing resolves delivery options from a source-code keyed map.
type fixturePricing struct {
	options map[string][]catalog.DeliveryOption
}

func (f *fixturePricing) DeliveryOptions(ctx context.Context, req catalog.DeliveryRequest) ([]catalog.DeliveryOption, error) {
	opts, ok := f.options[req.SourceCode]
	if !ok {
		return nil, fmt.Errorf("no pricing fixture entry for source code %q", req.SourceCode)
	}
	return opts, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simVerbose {
		// Per-stage candidate counts are logged at debug level by the
		// pipeline components, which use the global logger.
		log.Logger = *logger
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	search, err := loadSearchFixture(simSearchFile)
	if err != nil {
		return err
	}
	pricing, err := loadPricingFixture(simPricingFile)
	if err != nil {
		return err
	}

	skus, err := parseSkuFlags(simSkus)
	if err != nil {
		return err
	}

	selCfg := selection.DefaultConfig()
	service, err := selection.NewService(selCfg, search, pricing)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	if simNow != "" {
		instant, err := time.Parse(time.RFC3339, simNow)
		if err != nil {
			return fmt.Errorf("invalid --now value: %w", err)
		}
		service.SetClock(func() time.Time { return instant })
	}

	logger.Info().
		Str("city", simCity).
		Int("pharmacies", len(search.pharmacies)).
		Int("skus", len(skus)).
		Msg("Running selection pipeline")

	result, err := service.Select(cmd.Context(), selection.Request{
		City:    simCity,
		Skus:    skus,
		Address: catalog.GeoPoint{Lat: simLat, Lng: simLng},
	})
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}

	switch strings.ToLower(simOutput) {
	case "json":
		return outputResultJSON(result)
	case "table":
		outputResultTable(result)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", simOutput)
	}

	return nil
}

func loadSearchFixture(path string) (*fixtureSearch, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search fixture: %w", err)
	}

	var pharmacies []catalog.Pharmacy
	if err := json.Unmarshal(content, &pharmacies); err != nil {
		return nil, fmt.Errorf("failed to parse search fixture: %w", err)
	}
	return &fixtureSearch{pharmacies: pharmacies}, nil
}

func loadPricingFixture(path string) (*fixturePricing, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing fixture: %w", err)
	}

	var options map[string][]catalog.DeliveryOption
	if err := json.Unmarshal(content, &options); err != nil {
		return nil, fmt.Errorf("failed to parse pricing fixture: %w", err)
	}
	return &fixturePricing{options: options}, nil
}

func parseSkuFlags(raw []string) ([]catalog.SkuRequest, error) {
	skus := make([]catalog.SkuRequest, 0, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --sku value %q, expected sku:count", entry)
		}
		var count int64
		if _, err := fmt.Sscanf(parts[1], "%d", &count); err != nil {
			return nil, fmt.Errorf("invalid count in --sku value %q: %w", entry, err)
		}
		skus = append(skus, catalog.SkuRequest{SKU: parts[0], CountDesired: count})
	}
	return skus, nil
}

func outputResultTable(result catalog.SelectionResult) {
	fmt.Println("\nSelection Result")
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Option\tPharmacy\tTotal\tDelivery\tETA (min)\n")
	fmt.Fprintf(w, "------\t--------\t-----\t--------\t---------\n")
	writeQuoteRow(w, "Cheapest", result.CheapestOpen)
	writeQuoteRow(w, "Alt. cheapest", result.AlternativeCheapest)
	writeQuoteRow(w, "Fastest", result.FastestOpen)
	writeQuoteRow(w, "Alt. fastest", result.AlternativeFastest)
	w.Flush()
}

func writeQuoteRow(w *tabwriter.Writer, label string, quote *catalog.Quote) {
	if quote == nil {
		fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", label)
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
		label,
		quote.Offer.Source.Code,
		quote.TotalPrice.StringFixed(2),
		quote.Delivery.Price.StringFixed(2),
		quote.Delivery.ETA,
	)
}

func outputResultJSON(result catalog.SelectionResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
