package loadout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := DefaultTaxonomy()
	for _, s := range Slots {
		assert.NotZero(t, tax.BucketFor(s), "slot %s", s)
	}
	slot, ok := tax.SlotFor(1585787867)
	require.True(t, ok)
	assert.Equal(t, SlotClassItem, slot)

	_, ok = tax.SlotFor(4274335291)
	assert.False(t, ok)

	def, ok := tax.Stat(2996146975)
	require.True(t, ok)
	assert.Equal(t, "Mobility", def.Name)
	assert.Equal(t, "Weapons", def.Display)
}

func TestSlotKinds(t *testing.T) {
	weapons, armor := 0, 0
	for _, s := range Slots {
		if s.IsWeapon() {
			weapons++
		}
		if s.IsArmor() {
			armor++
		}
	}
	assert.Equal(t, 3, weapons)
	assert.Equal(t, 5, armor)
	assert.False(t, SlotSubclass.IsWeapon())
	assert.False(t, SlotSubclass.IsArmor())
}

func TestLoadTaxonomy_Invalid(t *testing.T) {
	_, err := LoadTaxonomy([]byte("buckets: [unclosed"))
	assert.Error(t, err)

	_, err = LoadTaxonomy([]byte(`
buckets:
  kinetic: 1
stats: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taxonomy validation failed")
}

func TestLoadTaxonomy_BadPattern(t *testing.T) {
	_, err := LoadTaxonomy([]byte(`
buckets: {kinetic: 1, energy: 2, power: 3, helmet: 4, arms: 5, chest: 6, legs: 7, class_item: 8, subclass: 9}
stats: [{hash: 1, name: Mobility}]
weapon_perks: {socket_indexes: [3], max: 1, ornament_tier_pattern: "("}
exotic_class_item: {perk_prefix: Spirit of}
subclass: {aspect_category: aspects, fragment_category: fragments}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ornament_tier_pattern")
}
