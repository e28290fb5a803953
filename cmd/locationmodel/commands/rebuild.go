package commands

import (
	"encoding/json"
	"os"

	"github.com/awschultz/locationmodel/common/bootstrap"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the location model once and persist it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := setupContainer(cmd.Context(), true, bootstrap.WithoutTelemetry())
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := c.LocationModel.Rebuild(cmd.Context(), "cli")
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}
