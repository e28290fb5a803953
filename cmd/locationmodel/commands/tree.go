package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/awschultz/locationmodel/cmd/locationmodel/service"
	"github.com/awschultz/locationmodel/common/bootstrap"
	"github.com/spf13/cobra"
)

var (
	treeExpanded  bool
	treeFilter    string
	treeTransform string
)

func init() {
	treeCmd.Flags().BoolVar(&treeExpanded, "expanded", false, "Mark every node expanded")
	treeCmd.Flags().StringVar(&treeFilter, "filter", "", "CEL expression over details, e.g. 'details.locationType == \"Line\"'")
	treeCmd.Flags().StringVar(&treeTransform, "transform", "", "JSON merge patch or JSON patch applied to every node")
	rootCmd.AddCommand(treeCmd)
}

var treeCmd = &cobra.Command{
	Use:   "tree [locationID]",
	Short: "Print the materialized tree under a location from the persisted model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid location id %q: %w", args[0], err)
		}

		c, cleanup, err := setupContainer(cmd.Context(), true, bootstrap.WithoutTelemetry())
		if err != nil {
			return err
		}
		defer cleanup()

		opts := service.TreeOptions{Expanded: treeExpanded}
		if treeFilter != "" {
			if opts.Filter, err = c.Evaluator.Compile(treeFilter); err != nil {
				return fmt.Errorf("invalid filter: %w", err)
			}
		}
		if treeTransform != "" {
			if opts.Transform, err = service.NewPatchTransform([]byte(treeTransform), c.Components.Logger); err != nil {
				return fmt.Errorf("invalid transform: %w", err)
			}
		}

		result, err := c.LocationModel.Tree(cmd.Context(), locationID, opts)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}
