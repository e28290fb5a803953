package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/awschultz/locationmodel/cmd/locationmodel/service"
	"github.com/awschultz/locationmodel/common/bootstrap"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/spf13/cobra"
)

func init() {
	tagsCmd.AddCommand(tagsImportCmd)
	tagsCmd.AddCommand(tagsBrowseCmd)
	rootCmd.AddCommand(tagsCmd)
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage the browsable tag namespace",
}

var tagsImportCmd = &cobra.Command{
	Use:   "import [rootPath] [export.json]",
	Short: "Load a tag provider JSON export under rootPath",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootPath, file := args[0], args[1]

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		tags, err := decodeTagExport(data)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", file, err)
		}

		browser, cleanup, err := setupTagBrowser(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		folders, err := browser.Import(cmd.Context(), rootPath, tags)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d folders under %s\n", folders, rootPath)
		return nil
	},
}

var tagsBrowseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "List the immediate children of a tag path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		browser, cleanup, err := setupTagBrowser(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		entries, err := browser.Browse(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

// decodeTagExport accepts either a single exported folder or a list of tags
func decodeTagExport(data []byte) ([]models.TagDefinition, error) {
	var list []models.TagDefinition
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var root models.TagDefinition
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Name == "" {
		return root.Tags, nil
	}
	return []models.TagDefinition{root}, nil
}

// setupTagBrowser connects only to redis; the tag namespace needs no database
func setupTagBrowser(cmd *cobra.Command) (*service.RedisTagBrowser, func(), error) {
	opts, err := bootstrapOptions(true, bootstrap.WithoutDB(), bootstrap.WithoutTelemetry())
	if err != nil {
		return nil, nil, err
	}

	components, err := bootstrap.Setup(cmd.Context(), serviceName, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap %s: %w", serviceName, err)
	}

	browser := service.NewRedisTagBrowser(
		components.Redis,
		components.Config.LocationModel.TagNamespacePrefix,
		components.Logger,
	)
	return browser, func() { _ = components.Shutdown(cmd.Context()) }, nil
}
