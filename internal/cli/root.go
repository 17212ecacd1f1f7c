// Package cli implements the zonecrawl command surface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zonecrawl/pkg/logging"
)

var (
	flagVerbose bool
	flagPretty  bool
	flagBaseURL string
	flagRedis   string
)

var rootCmd = &cobra.Command{
	Use:   "zonecrawl",
	Short: "Crawl the regional zoning catalog and its polygon geometries",
	Long: `zonecrawl retrieves the land-use/zoning catalog of the regional
geoportal in two stages:

  1. discover    walk the paginated catalog listing and keep the records
                 that reference polygon geometry
  2. geometries  fetch the polygon geometry for every discovered record

Both stages run a bounded worker pool with retries; per-unit failures are
recorded in the output instead of aborting the run, so gaps can be
detected and re-fetched.

Examples:
	# Walk 40 listing pages with 8 workers
	zonecrawl discover --max-pages 40 --output zones.json

	# Fetch geometry for the discovered records
	zonecrawl geometries --input zones.json --output geometries.json

	# Flatten nested FeatureCollections in a GeoJSON export
	zonecrawl flatten nested.geojson flat.geojson`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if flagVerbose {
			level = logging.LevelDebug
		}
		logging.Setup(logging.Config{
			Level:  level,
			Pretty: flagPretty,
			Output: os.Stderr,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "pretty", false, "Human-readable console logs instead of JSON")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Geoportal API root (default: the production geoportal)")
	rootCmd.PersistentFlags().StringVar(&flagRedis, "redis", os.Getenv("REDIS_URL"), "Redis address for response cache and shared cooldown state (empty disables)")
}

// SetVersion sets the version reported by --version.
func SetVersion(version string) {
	rootCmd.Version = version
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
