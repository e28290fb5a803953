package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
)

const (
	// ComponentTypeMarker identifies component UDT types
	ComponentTypeMarker = "Component"
	// ComponentTypePrefix is stripped from a component's typeId
	ComponentTypePrefix = "Components/"
)

// componentFolders are the child folders also scanned for components
var componentFolders = []string{"Alarming", "Alarms"}

// TagBrowser lists the immediate children of a tag path.
// An empty kind returns entries of every kind.
type TagBrowser interface {
	Browse(ctx context.Context, path string, kind models.TagKind) ([]models.TagEntry, error)
}

// ComponentDiscovery finds component instances attached to a location's tags
type ComponentDiscovery struct {
	browser TagBrowser
	log     *logger.Logger
}

// NewComponentDiscovery creates a new component discovery
func NewComponentDiscovery(browser TagBrowser, log *logger.Logger) *ComponentDiscovery {
	return &ComponentDiscovery{
		browser: browser,
		log:     log,
	}
}

// Discover returns the components directly under rootPath and directly
// under its "Alarming" and "Alarms" folders, ordered by type. The scan
// does not descend any further.
func (d *ComponentDiscovery) Discover(ctx context.Context, rootPath string) ([]models.Component, error) {
	instances, err := d.browser.Browse(ctx, rootPath, models.TagKindUdtInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to browse %s: %w", rootPath, err)
	}
	components := appendComponents([]models.Component{}, instances)

	folders, err := d.browser.Browse(ctx, rootPath, models.TagKindFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to browse folders of %s: %w", rootPath, err)
	}

	for _, folder := range folders {
		if !slices.Contains(componentFolders, folder.Name) {
			continue
		}

		nested, err := d.browser.Browse(ctx, folder.FullPath, models.TagKindUdtInstance)
		if err != nil {
			d.log.Warn("skipping component folder", "path", folder.FullPath, "error", err)
			continue
		}
		components = appendComponents(components, nested)
	}

	slices.SortStableFunc(components, func(a, b models.Component) int {
		return cmp.Compare(a.Type, b.Type)
	})

	d.log.Debug("components discovered", "path", rootPath, "count", len(components))

	return components, nil
}

func appendComponents(components []models.Component, entries []models.TagEntry) []models.Component {
	for _, entry := range entries {
		if entry.Kind != models.TagKindUdtInstance || !strings.Contains(entry.TypeID, ComponentTypeMarker) {
			continue
		}
		components = append(components, models.Component{
			Name: entry.Name,
			Type: strings.TrimPrefix(entry.TypeID, ComponentTypePrefix),
		})
	}
	return components
}
