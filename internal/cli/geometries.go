package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zonecrawl/pkg/catalog"
	"zonecrawl/pkg/crawl"
	"zonecrawl/pkg/geometry"
)

var geometriesFlags struct {
	input       string
	output      string
	geojson     string
	concurrent  int
	maxAttempts int
}

var geometriesCmd = &cobra.Command{
	Use:   "geometries",
	Short: "Fetch polygon geometry for every record of a discovery output",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		records, err := catalog.Load(geometriesFlags.input)
		if err != nil {
			return err
		}

		c, err := buildClient(ctx, 0, 0, geometriesFlags.concurrent)
		if err != nil {
			return err
		}

		stage, err := crawl.NewGeometryFetch(c, crawl.GeometryConfig{
			Concurrent:  geometriesFlags.concurrent,
			MaxAttempts: geometriesFlags.maxAttempts,
		})
		if err != nil {
			return err
		}

		start := time.Now()
		results, run, err := stage.Run(ctx, records)
		if err != nil {
			return err
		}

		if err := results.Save(geometriesFlags.output); err != nil {
			return err
		}

		if geometriesFlags.geojson != "" {
			fc := geometry.Collection(results, featureProps(records))
			if err := fc.SaveCollection(geometriesFlags.geojson); err != nil {
				return err
			}
			cmd.Printf("Wrote %d features to %s\n", len(fc.Features), geometriesFlags.geojson)
		}

		printSummary(cmd.OutOrStdout(), "geometry fetch", run, time.Since(start), results.Failed())
		cmd.Printf("Saved %d entries to %s\n", len(results), geometriesFlags.output)
		return nil
	},
}

// featureProps indexes the catalog fields exported as GeoJSON properties
// by card id. The first record wins for identifiers shared by rows.
func featureProps(records []catalog.Record) map[string]geometry.FeatureProps {
	props := make(map[string]geometry.FeatureProps, len(records))
	for _, r := range records {
		if !r.HasGeometry() {
			continue
		}
		if _, ok := props[r.CardID]; ok {
			continue
		}
		props[r.CardID] = geometry.FeatureProps{
			ZoneCode:     r.ZoneCode,
			Municipality: r.Municipality,
		}
	}
	return props
}

func init() {
	geometriesCmd.Flags().StringVar(&geometriesFlags.input, "input", "", "Discovery output JSON file (required)")
	geometriesCmd.Flags().StringVar(&geometriesFlags.output, "output", "geometries.json", "Output JSON file mapping card id to geometry or error")
	geometriesCmd.Flags().StringVar(&geometriesFlags.geojson, "geojson", "", "Also write a GeoJSON FeatureCollection to this path")
	geometriesCmd.Flags().IntVar(&geometriesFlags.concurrent, "concurrent", 10, "Concurrent geometry fetches")
	geometriesCmd.Flags().IntVar(&geometriesFlags.maxAttempts, "max-attempts", 3, "Attempts per card before recording a failure")
	geometriesCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(geometriesCmd)
}
