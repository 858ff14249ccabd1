package cli

import (
	"github.com/spf13/cobra"
)

var (
	searchVector string
	searchK      int
	searchEf     int
	searchFilter string
)

var searchCmd = &cobra.Command{
	Use:   "search <collection>",
	Short: "Run a nearest-neighbor search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vec, err := parseVector(searchVector)
		if err != nil {
			return err
		}
		filter, err := parseAttrs(searchFilter)
		if err != nil {
			return err
		}
		results, err := newClient().Search(args[0], vec, searchK, searchEf, filter)
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchVector, "vector", "", "comma-separated query vector components (required)")
	searchCmd.Flags().IntVar(&searchK, "k", 10, "number of nearest neighbors to return")
	searchCmd.Flags().IntVar(&searchEf, "ef", 0, "search width (collection default if 0)")
	searchCmd.Flags().StringVar(&searchFilter, "filter", "", "comma-separated key=value attribute equality filter")
	searchCmd.MarkFlagRequired("vector")

	rootCmd.AddCommand(searchCmd)
}
