package bungie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlatformName(t *testing.T) {
	assert.Equal(t, "Steam", PlatformName(3))
	assert.Equal(t, "Epic Games", PlatformName(6))
	assert.Equal(t, "BungieNext", PlatformName(254))
	assert.Equal(t, "Unknown", PlatformName(99))
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "Titan", ClassName(0))
	assert.Equal(t, "Hunter", ClassName(1))
	assert.Equal(t, "Warlock", ClassName(2))
	assert.Equal(t, "Unknown", ClassName(3))
}

func TestIconURL(t *testing.T) {
	assert.Equal(t, "https://www.bungie.net/common/icon.jpg", IconURL("/common/icon.jpg"))
	assert.Equal(t, "", IconURL(""))
}

func TestMostRecentCharacter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &Profile{}
	p.Characters.Data = map[string]Character{
		"a": {CharacterID: "a", DateLastPlayed: now.Add(-time.Hour)},
		"b": {CharacterID: "b", DateLastPlayed: now},
		"c": {CharacterID: "c", DateLastPlayed: now.Add(-48 * time.Hour)},
	}
	ch, ok := p.MostRecentCharacter()
	assert.True(t, ok)
	assert.Equal(t, "b", ch.CharacterID)
}

func TestMostRecentCharacter_Empty(t *testing.T) {
	_, ok := (&Profile{}).MostRecentCharacter()
	assert.False(t, ok)
}
