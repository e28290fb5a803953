package service

import (
	"context"
	"errors"
	"testing"

	"github.com/awschultz/locationmodel/common/logger"
	"github.com/awschultz/locationmodel/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineTagPath = "[default]Locations/Plant/Packaging/Line 1"

func TestComponentDiscovery_RootAndAlarmingFolder(t *testing.T) {
	browser := &fakeTagBrowser{}
	browser.add(lineTagPath,
		udt(lineTagPath, "Infeed Pump", "Components/Pump"),
		folder(lineTagPath, "Alarming"),
	)
	browser.add(lineTagPath+"/Alarming",
		udt(lineTagPath+"/Alarming", "Discharge Valve", "Components/Valve"),
	)

	d := NewComponentDiscovery(browser, logger.Discard())
	components, err := d.Discover(context.Background(), lineTagPath)
	require.NoError(t, err)

	assert.Equal(t, []models.Component{
		{Name: "Infeed Pump", Type: "Pump"},
		{Name: "Discharge Valve", Type: "Valve"},
	}, components)
}

func TestComponentDiscovery_SortedByTypeAcrossFolders(t *testing.T) {
	browser := &fakeTagBrowser{}
	browser.add(lineTagPath,
		udt(lineTagPath, "Z Valve", "Components/Valve"),
		udt(lineTagPath, "Main Motor", "Components/Motor"),
		folder(lineTagPath, "Alarms"),
	)
	browser.add(lineTagPath+"/Alarms",
		udt(lineTagPath+"/Alarms", "Horn", "Components/Alarm"),
		udt(lineTagPath+"/Alarms", "A Valve", "Components/Valve"),
	)

	components, err := NewComponentDiscovery(browser, logger.Discard()).Discover(context.Background(), lineTagPath)
	require.NoError(t, err)

	assert.Equal(t, []models.Component{
		{Name: "Horn", Type: "Alarm"},
		{Name: "Main Motor", Type: "Motor"},
		{Name: "Z Valve", Type: "Valve"},
		{Name: "A Valve", Type: "Valve"},
	}, components, "equal types keep discovery order")
}

func TestComponentDiscovery_IgnoresNonComponentsAndOtherFolders(t *testing.T) {
	browser := &fakeTagBrowser{}
	browser.add(lineTagPath,
		udt(lineTagPath, "Line State", "Status/LineState"),
		models.TagEntry{Name: "Speed", FullPath: lineTagPath + "/Speed", Kind: models.TagKindAtomic},
		folder(lineTagPath, "Parameters"),
	)
	browser.add(lineTagPath+"/Parameters",
		udt(lineTagPath+"/Parameters", "Hidden Pump", "Components/Pump"),
	)

	components, err := NewComponentDiscovery(browser, logger.Discard()).Discover(context.Background(), lineTagPath)
	require.NoError(t, err)

	assert.NotNil(t, components)
	assert.Empty(t, components)
	assert.NotContains(t, browser.calls, lineTagPath+"/Parameters|UdtInstance")
}

func TestComponentDiscovery_DoesNotRecurse(t *testing.T) {
	browser := &fakeTagBrowser{}
	alarming := lineTagPath + "/Alarming"
	browser.add(lineTagPath, folder(lineTagPath, "Alarming"))
	browser.add(alarming, folder(alarming, "Alarms"))
	browser.add(alarming+"/Alarms", udt(alarming+"/Alarms", "Deep", "Components/Pump"))

	components, err := NewComponentDiscovery(browser, logger.Discard()).Discover(context.Background(), lineTagPath)
	require.NoError(t, err)
	assert.Empty(t, components)
}

func TestComponentDiscovery_TypeWithoutPrefix(t *testing.T) {
	browser := &fakeTagBrowser{}
	browser.add(lineTagPath, udt(lineTagPath, "Legacy", "LegacyComponent"))

	components, err := NewComponentDiscovery(browser, logger.Discard()).Discover(context.Background(), lineTagPath)
	require.NoError(t, err)
	assert.Equal(t, []models.Component{{Name: "Legacy", Type: "LegacyComponent"}}, components)
}

func TestComponentDiscovery_BrowseErrors(t *testing.T) {
	t.Run("root failure is returned", func(t *testing.T) {
		browser := &fakeTagBrowser{errs: map[string]error{lineTagPath: errors.New("provider offline")}}

		_, err := NewComponentDiscovery(browser, logger.Discard()).Discover(context.Background(), lineTagPath)
		assert.ErrorContains(t, err, "provider offline")
	})

	t.Run("folder failure is skipped", func(t *testing.T) {
		alarming := lineTagPath + "/Alarming"
		browser := &fakeTagBrowser{errs: map[string]error{alarming: errors.New("timeout")}}
		browser.add(lineTagPath,
			udt(lineTagPath, "Pump", "Components/Pump"),
			folder(lineTagPath, "Alarming"),
		)

		components, err := NewComponentDiscovery(browser, logger.Discard()).Discover(context.Background(), lineTagPath)
		require.NoError(t, err)
		assert.Equal(t, []models.Component{{Name: "Pump", Type: "Pump"}}, components)
	})
}
