package cli

import (
	"github.com/spf13/cobra"

	"zonecrawl/pkg/geometry"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten <input.geojson> <output.geojson>",
	Short: "Flatten nested FeatureCollections in a GeoJSON file",
	Long: `Some geometry cards serve a FeatureCollection as the feature geometry.
flatten hoists those nested features into the top-level collection,
merging the parent feature's properties into each nested feature.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, after, err := geometry.FlattenFile(args[0], args[1])
		if err != nil {
			return err
		}
		cmd.Printf("Flattened %s: %d features in, %d features out\n", args[0], before, after)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flattenCmd)
}
