package loadout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
)

func TestSummarize_UnknownItemStub(t *testing.T) {
	e := newTestExtractor(t, newFakeDefs())
	tax := DefaultTaxonomy()
	item := equipped(tax, SlotPower, 123456, "6917529999")

	s := e.Summarize(context.Background(), item, components())
	require.NotNil(t, s)
	assert.Equal(t, UnknownItemName, s.Name)
	assert.Equal(t, uint32(123456), s.Hash)
	assert.Equal(t, "6917529999", s.InstanceID)
	assert.Equal(t, SlotPower, s.Slot)
	assert.Empty(t, s.WeaponPerks)
}

func TestSummarize_DisplayOverrides(t *testing.T) {
	weapon := itemDef(1, "Yeartide Apex", bungie.ItemTypeWeapon, bungie.TierTypeSuperior, 5)
	weapon.Quality = &bungie.QualityBlock{
		CurrentVersion: 1,
		Versions: []bungie.QualityVersion{
			{},
			{DisplayProperties: &bungie.DisplayProperties{Name: "Achronal Yeartide Apex", Icon: "/tier.jpg"}},
		},
	}
	weapon.IconWatermark = "/watermark.png"
	ornament := plugDef(50, "Holofoil", "Tier 3 finish.")
	ornament.DisplayProperties.Icon = "/ornament.jpg"
	defs := newFakeDefs(weapon, ornament, plugDef(103, "Outlaw", ""), plugDef(104, "Rampage", ""))
	e := newTestExtractor(t, defs)

	tax := DefaultTaxonomy()
	item := equipped(tax, SlotEnergy, 1, "i1")
	item.OverrideStyleItemHash = 50
	item.State = 4
	comps := components()
	withSockets(comps, "i1", on(1), on(2), on(3), on(103), on(104))
	comps.Instances.Data["i1"] = bungie.ItemInstance{DamageType: 2, PrimaryStat: &bungie.PrimaryStat{StatHash: 1480404414, Value: 2010}}

	s := e.Summarize(context.Background(), item, comps)
	assert.Equal(t, "Achronal Yeartide Apex", s.Name)
	assert.Equal(t, "/ornament.jpg", s.Icon)
	assert.Equal(t, "https://www.bungie.net/ornament.jpg", s.IconURL)
	assert.Equal(t, "/watermark.png", s.IconWatermark)
	assert.Equal(t, 2, s.DamageType)
	assert.Equal(t, 2010, s.PrimaryStat.Value)
	assert.Equal(t, 4, s.State)
	assert.Equal(t, "Legendary", s.TierType)
	assert.False(t, s.IsExotic)

	require.NotNil(t, s.WeaponTier)
	assert.Equal(t, 2, *s.WeaponTier)
	require.Len(t, s.WeaponPerks, 2)
	assert.True(t, s.WeaponPerks[0].IsEnhanced)
	assert.Len(t, s.Sockets, 5)
}

func TestSummarize_QualityWithoutOrnament(t *testing.T) {
	weapon := itemDef(1, "Gun", bungie.ItemTypeWeapon, bungie.TierTypeSuperior, 0)
	weapon.Quality = &bungie.QualityBlock{
		CurrentVersion: 0,
		Versions:       []bungie.QualityVersion{{DisplayProperties: &bungie.DisplayProperties{Icon: "/t0.jpg"}}},
	}
	e := newTestExtractor(t, newFakeDefs(weapon))

	s := e.Summarize(context.Background(), equipped(DefaultTaxonomy(), SlotKinetic, 1, "i1"), components())
	assert.Equal(t, "Gun", s.Name)
	assert.Equal(t, "/t0.jpg", s.Icon)
	require.NotNil(t, s.WeaponTier)
	assert.Equal(t, 0, *s.WeaponTier)
}

func TestSummarize_MissingComponentsAreEmpty(t *testing.T) {
	helmet := itemDef(1, "Helm", bungie.ItemTypeArmor, bungie.TierTypeExotic, 10)
	helmet.Inventory.TierTypeName = ""
	e := newTestExtractor(t, newFakeDefs(helmet))

	s := e.Summarize(context.Background(), equipped(DefaultTaxonomy(), SlotHelmet, 1, "absent"), bungie.ItemComponentSet{})
	assert.Equal(t, "Helm", s.Name)
	assert.Equal(t, "Common", s.TierType)
	assert.True(t, s.IsExotic)
	assert.Empty(t, s.Mods)
	assert.Empty(t, s.Sockets)
	assert.NotNil(t, s.Stats)
	assert.Nil(t, s.WeaponTier)
}

func TestSummarize_UnresolvedOrnamentKeepsItem(t *testing.T) {
	chest := itemDef(1, "Chest", bungie.ItemTypeArmor, bungie.TierTypeSuperior, 0)
	e := newTestExtractor(t, newFakeDefs(chest))
	item := equipped(DefaultTaxonomy(), SlotChest, 1, "i1")
	item.OverrideStyleItemHash = 999

	s := e.Summarize(context.Background(), item, components())
	assert.Equal(t, "Chest", s.Name)
	assert.Equal(t, "/icons/1.jpg", s.Icon)
}

func TestSummarize_ArmorCarriesMods(t *testing.T) {
	legs := itemDef(1, "Legs", bungie.ItemTypeArmor, bungie.TierTypeSuperior, 4)
	defs := newFakeDefs(legs,
		modDef(20, "Recuperation", "enhancements.v2_legs", 0),
		modDef(21, "Superblack", "shader", 2973005342),
	)
	e := newTestExtractor(t, defs)
	comps := components()
	withSockets(comps, "i1", on(20), on(21), off(20))

	s := e.Summarize(context.Background(), equipped(DefaultTaxonomy(), SlotLegs, 1, "i1"), comps)
	require.Len(t, s.Mods, 1)
	assert.Equal(t, "Recuperation", s.Mods[0].Name)
}
