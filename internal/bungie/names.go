package bungie

// AssetHost is prefixed to the relative icon and emblem paths in definitions.
const AssetHost = "https://www.bungie.net"

var platformNames = map[int]string{
	1:   "Xbox",
	2:   "PlayStation",
	3:   "Steam",
	4:   "Blizzard",
	5:   "Stadia",
	6:   "Epic Games",
	10:  "Demon",
	254: "BungieNext",
}

var classNames = map[int]string{
	0: "Titan",
	1: "Hunter",
	2: "Warlock",
}

// PlatformName returns the display name of a BungieMembershipType, or "Unknown".
func PlatformName(membershipType int) string {
	if name, ok := platformNames[membershipType]; ok {
		return name
	}
	return "Unknown"
}

// ClassName returns the display name of a DestinyClass, or "Unknown".
func ClassName(classType int) string {
	if name, ok := classNames[classType]; ok {
		return name
	}
	return "Unknown"
}

// IconURL turns a relative asset path into an absolute URL. An empty path yields "".
func IconURL(path string) string {
	if path == "" {
		return ""
	}
	return AssetHost + path
}

// MostRecentCharacter returns the character with the latest DateLastPlayed.
//
// Postcondition: ok is false iff the profile has no characters. Ties are
// broken by the lower character id so the result is deterministic.
func (p *Profile) MostRecentCharacter() (ch Character, ok bool) {
	var bestID string
	for id, c := range p.Characters.Data {
		if !ok || c.DateLastPlayed.After(ch.DateLastPlayed) ||
			(c.DateLastPlayed.Equal(ch.DateLastPlayed) && id < bestID) {
			ch, bestID, ok = c, id, true
		}
	}
	if ok && ch.CharacterID == "" {
		ch.CharacterID = bestID
	}
	return ch, ok
}

// EquipmentFor returns the equipped items of a character; a missing component yields nil.
func (p *Profile) EquipmentFor(characterID string) []EquippedItem {
	return p.CharacterEquipment.Data[characterID].Items
}

// ProgressionFor returns the artifact progression of a character, or nil.
func (p *Profile) ProgressionFor(characterID string) *CharacterProgression {
	prog, ok := p.CharacterProgressions.Data[characterID]
	if !ok {
		return nil
	}
	return &prog
}
