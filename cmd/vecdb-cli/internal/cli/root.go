// Package cli implements the vecdb-cli command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/rdmurugan/d-vecDB/client-sdk/Go/client"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "vecdb-cli",
	Short: "Command line client for vecdbd",
	Long: `vecdb-cli talks to a running vecdbd instance over its REST API.

Examples:
  vecdb-cli collection create docs --dimension 768
  vecdb-cli vector insert docs 3b1f... --vector 0.1,0.2,0.3
  vecdb-cli search docs --vector 0.1,0.2,0.3 --k 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8080", "vecdbd server address")
}

func newClient() *client.VecDBClient {
	return client.NewVecDBClient(serverAddr)
}
