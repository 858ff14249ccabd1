package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rdmurugan/d-vecDB/client-sdk/Go/client"
)

var vectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Manage vectors within a collection",
}

var (
	vectorValues string
	vectorAttrs  string
)

func parseVector(s string) ([]float32, error) {
	if s == "" {
		return nil, fmt.Errorf("--vector is required")
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

func parseAttrs(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	attrs := map[string]any{}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", pair)
		}
		attrs[kv[0]] = kv[1]
	}
	return attrs, nil
}

var vectorInsertCmd = &cobra.Command{
	Use:   "insert <collection> <id>",
	Short: "Insert a vector by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vec, err := parseVector(vectorValues)
		if err != nil {
			return err
		}
		attrs, err := parseAttrs(vectorAttrs)
		if err != nil {
			return err
		}
		v, err := newClient().InsertVector(args[0], args[1], vec, attrs)
		if err != nil {
			return err
		}
		return printJSON(v)
	},
}

var vectorGetCmd = &cobra.Command{
	Use:   "get <collection> <id>",
	Short: "Fetch a vector by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := newClient().GetVector(args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(v)
	},
}

var vectorUpdateCmd = &cobra.Command{
	Use:   "update <collection> <id>",
	Short: "Replace a vector's embedding and attributes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vec, err := parseVector(vectorValues)
		if err != nil {
			return err
		}
		attrs, err := parseAttrs(vectorAttrs)
		if err != nil {
			return err
		}
		v, err := newClient().UpdateVector(args[0], args[1], vec, attrs)
		if err != nil {
			return err
		}
		return printJSON(v)
	},
}

var vectorDeleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>",
	Short: "Delete a vector by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteVector(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "deleted vector %q\n", args[1])
		return nil
	},
}

var batchInsertFile string

var vectorBatchInsertCmd = &cobra.Command{
	Use:   "batch-insert <collection>",
	Short: "Insert many vectors from a JSON file in one durability unit",
	Long: `Reads a JSON array of {"id", "vector", "attributes"} objects from
--file and inserts them as a single all-or-nothing batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchInsertFile == "" {
			return fmt.Errorf("--file is required")
		}
		data, err := os.ReadFile(batchInsertFile)
		if err != nil {
			return err
		}
		items, err := decodeBatchItems(data)
		if err != nil {
			return err
		}
		inserted, err := newClient().BatchInsertVectors(args[0], items)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "inserted %d vectors\n", inserted)
		return nil
	},
}

func decodeBatchItems(data []byte) ([]client.Vector, error) {
	var items []client.Vector
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse --file: %w", err)
	}
	return items, nil
}

func init() {
	vectorInsertCmd.Flags().StringVar(&vectorValues, "vector", "", "comma-separated vector components (required)")
	vectorInsertCmd.Flags().StringVar(&vectorAttrs, "attrs", "", "comma-separated key=value attribute pairs")
	vectorInsertCmd.MarkFlagRequired("vector")

	vectorUpdateCmd.Flags().StringVar(&vectorValues, "vector", "", "comma-separated vector components (required)")
	vectorUpdateCmd.Flags().StringVar(&vectorAttrs, "attrs", "", "comma-separated key=value attribute pairs")
	vectorUpdateCmd.MarkFlagRequired("vector")

	vectorBatchInsertCmd.Flags().StringVar(&batchInsertFile, "file", "", "path to a JSON array of vectors (required)")
	vectorBatchInsertCmd.MarkFlagRequired("file")

	vectorCmd.AddCommand(vectorInsertCmd, vectorGetCmd, vectorUpdateCmd, vectorDeleteCmd, vectorBatchInsertCmd)
	rootCmd.AddCommand(vectorCmd)
}
