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
)

var discoverFlags struct {
	maxPages    int
	workers     int
	maxAttempts int
	output      string
	docID       int
	pageSize    int
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Walk the catalog listing pages and collect records with geometry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c, err := buildClient(ctx, discoverFlags.docID, discoverFlags.pageSize, discoverFlags.workers)
		if err != nil {
			return err
		}

		stage, err := crawl.NewDiscovery(c, crawl.DiscoveryConfig{
			MaxPages:    discoverFlags.maxPages,
			Workers:     discoverFlags.workers,
			MaxAttempts: discoverFlags.maxAttempts,
		})
		if err != nil {
			return err
		}

		start := time.Now()
		records, run, err := stage.Run(ctx)
		if err != nil {
			return err
		}

		if err := catalog.Save(discoverFlags.output, records); err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), "discovery", run, time.Since(start), nil)
		cmd.Printf("Saved %d records to %s\n", len(records), discoverFlags.output)
		return nil
	},
}

func init() {
	discoverCmd.Flags().IntVar(&discoverFlags.maxPages, "max-pages", 0, "Number of listing pages to walk (required)")
	discoverCmd.Flags().IntVar(&discoverFlags.workers, "workers", 8, "Concurrent page fetches")
	discoverCmd.Flags().IntVar(&discoverFlags.maxAttempts, "max-attempts", 3, "Attempts per page before recording a failure")
	discoverCmd.Flags().StringVar(&discoverFlags.output, "output", "zones.json", "Output JSON file")
	discoverCmd.Flags().IntVar(&discoverFlags.docID, "doc-id", 0, "Catalog document id (default: zoning catalog)")
	discoverCmd.Flags().IntVar(&discoverFlags.pageSize, "page-size", 0, "Rows per listing page (default: 100)")
	discoverCmd.MarkFlagRequired("max-pages")

	rootCmd.AddCommand(discoverCmd)
}
