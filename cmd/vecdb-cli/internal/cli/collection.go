package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rdmurugan/d-vecDB/client-sdk/Go/client"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
}

var (
	createDimension      int
	createDistance       string
	createM              int
	createEfConstruction int
	createEfSearch       int
	createMaxLayer       int
)

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := newClient().CreateCollection(client.CreateCollectionOptions{
			Name:            args[0],
			Dimension:       createDimension,
			Distance:        createDistance,
			M:               createM,
			EfConstruction:  createEfConstruction,
			EfSearchDefault: createEfSearch,
			MaxLayer:        createMaxLayer,
		})
		if err != nil {
			return err
		}
		return printJSON(col)
	},
}

var collectionGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a collection's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := newClient().GetCollection(args[0])
		if err != nil {
			return err
		}
		return printJSON(col)
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := newClient().ListCollections()
		if err != nil {
			return err
		}
		return printJSON(names)
	},
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection and all of its vectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteCollection(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "deleted collection %q\n", args[0])
		return nil
	},
}

var collectionStatsCmd = &cobra.Command{
	Use:   "stats <name>",
	Short: "Show a collection's live/tombstone counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newClient().Stats(args[0])
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var collectionCompactCmd = &cobra.Command{
	Use:   "compact <name>",
	Short: "Reclaim tombstoned slots in a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reclaimed, err := newClient().Compact(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "reclaimed %d slots\n", reclaimed)
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	collectionCreateCmd.Flags().IntVar(&createDimension, "dimension", 0, "vector dimension (required)")
	collectionCreateCmd.Flags().StringVar(&createDistance, "distance", "", "distance metric: cosine, euclidean, dot (default cosine)")
	collectionCreateCmd.Flags().IntVar(&createM, "m", 0, "HNSW graph degree (server default if 0)")
	collectionCreateCmd.Flags().IntVar(&createEfConstruction, "ef-construction", 0, "HNSW construction search width (server default if 0)")
	collectionCreateCmd.Flags().IntVar(&createEfSearch, "ef-search", 0, "default search width (server default if 0)")
	collectionCreateCmd.Flags().IntVar(&createMaxLayer, "max-layer", 0, "HNSW max layer (server default if 0)")
	collectionCreateCmd.MarkFlagRequired("dimension")

	collectionCmd.AddCommand(collectionCreateCmd, collectionGetCmd, collectionListCmd, collectionDeleteCmd, collectionStatsCmd, collectionCompactCmd)
	rootCmd.AddCommand(collectionCmd)
}
