// Package loadout turns a character's equipped items and their socket state
// into a display-ready loadout: per-slot item summaries, classified perks and
// mods, aggregated character stats and active artifact mods.
package loadout

import "github.com/martinricard/d2loadout-widget/internal/bungie"

// UnknownItemName is the name given to items whose definition cannot be resolved.
const UnknownItemName = "Unknown Item"

// UnknownModName is the name given to artifact mods whose definition cannot be resolved.
const UnknownModName = "Unknown Mod"

// Perk is a classified plug: a weapon main perk or an exotic class item perk.
type Perk struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconURL     string `json:"iconUrl,omitempty"`
	PlugHash    uint32 `json:"plugHash"`
	SocketIndex int    `json:"socketIndex"`
	IsEnhanced  bool   `json:"isEnhanced"`
}

// SubclassPlug is an aspect or fragment slotted in a subclass.
type SubclassPlug struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconURL     string `json:"iconUrl,omitempty"`
	PlugHash    uint32 `json:"plugHash"`
	ItemType    string `json:"itemType"`
	Category    string `json:"category"`
}

// ModKind classifies an exportable combat mod.
type ModKind string

const (
	// ModKindArmor is a current-generation armor mod.
	ModKindArmor ModKind = "armor"
	// ModKindLegacyArmor is a seasonal or raid armor mod.
	ModKindLegacyArmor ModKind = "legacy_armor"
	// ModKindWeapon is a weapon mod.
	ModKindWeapon ModKind = "weapon"
)

// StatDelta is an investment stat bonus granted by a plug.
type StatDelta struct {
	StatHash uint32 `json:"statHash"`
	Value    int    `json:"value"`
}

// Mod is a combat mod that survives the export filter.
type Mod struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	IconURL     string      `json:"iconUrl,omitempty"`
	PlugHash    uint32      `json:"plugHash"`
	SocketIndex int         `json:"socketIndex"`
	Kind        ModKind     `json:"kind"`
	Stats       []StatDelta `json:"stats,omitempty"`
}

// SocketPlug is the plug currently inserted at a socket index.
type SocketPlug struct {
	Index     int    `json:"index"`
	PlugHash  uint32 `json:"plugHash"`
	IsVisible bool   `json:"isVisible"`
}

// ItemSummary is the normalized view of one equipped item.
type ItemSummary struct {
	Name                  string                      `json:"name"`
	Description           string                      `json:"description"`
	Icon                  string                      `json:"icon"`
	IconURL               string                      `json:"iconUrl,omitempty"`
	Hash                  uint32                      `json:"hash"`
	InstanceID            string                      `json:"instanceId"`
	Slot                  Slot                        `json:"slot,omitempty"`
	ItemType              string                      `json:"itemType"`
	TierType              string                      `json:"tierType"`
	IsExotic              bool                        `json:"isExotic"`
	DamageType            int                         `json:"damageType"`
	PrimaryStat           *bungie.PrimaryStat         `json:"primaryStat"`
	Stats                 map[uint32]bungie.StatValue `json:"stats"`
	Energy                *bungie.Energy              `json:"energy"`
	State                 int                         `json:"state"`
	OverrideStyleItemHash uint32                      `json:"overrideStyleItemHash,omitempty"`
	IconWatermark         string                      `json:"iconWatermark,omitempty"`
	IconWatermarkShelved  string                      `json:"iconWatermarkShelved,omitempty"`
	WeaponTier            *int                        `json:"weaponTier"`
	WeaponPerks           []Perk                      `json:"weaponPerks"`
	ExoticPerks           []Perk                      `json:"exoticPerks"`
	Mods                  []Mod                       `json:"mods"`
	Aspects               []SubclassPlug              `json:"aspects,omitempty"`
	Fragments             []SubclassPlug              `json:"fragments,omitempty"`
	Sockets               []SocketPlug                `json:"sockets"`
}

// Weapons holds the three weapon slots; an empty slot is nil.
type Weapons struct {
	Kinetic *ItemSummary `json:"kinetic"`
	Energy  *ItemSummary `json:"energy"`
	Power   *ItemSummary `json:"power"`
}

// Armor holds the five armor slots; an empty slot is nil.
type Armor struct {
	Helmet    *ItemSummary `json:"helmet"`
	Arms      *ItemSummary `json:"arms"`
	Chest     *ItemSummary `json:"chest"`
	Legs      *ItemSummary `json:"legs"`
	ClassItem *ItemSummary `json:"classItem"`
}

// Pieces returns the non-nil armor summaries in slot order.
func (a Armor) Pieces() []*ItemSummary {
	var out []*ItemSummary
	for _, p := range []*ItemSummary{a.Helmet, a.Arms, a.Chest, a.Legs, a.ClassItem} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Stats maps stat names (Mobility, Resilience...) to values in [0, 200].
type Stats map[string]int

// StatsSource records which computation produced Stats.
type StatsSource string

const (
	// StatsSourceCharacter means the API-reported final character stats were used.
	StatsSourceCharacter StatsSource = "character"
	// StatsSourceArmor means stats were summed from armor pieces and mod deltas.
	StatsSourceArmor StatsSource = "armor"
)

// StatLine is one stat prepared for display.
type StatLine struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Value       int    `json:"value"`
	Tier        int    `json:"tier"`
}

// ArtifactMod is an artifact perk that is unlocked and slotted.
type ArtifactMod struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconURL     string `json:"iconUrl,omitempty"`
	Hash        uint32 `json:"hash"`
	IsVisible   bool   `json:"isVisible"`
	IsActive    bool   `json:"isActive"`
	TierHash    uint32 `json:"tierHash"`
}

// ArtifactInfo summarizes the seasonal artifact of a profile.
type ArtifactInfo struct {
	Name           string `json:"name"`
	Icon           string `json:"icon"`
	IconURL        string `json:"iconUrl,omitempty"`
	PowerBonus     int    `json:"powerBonus"`
	PointsUnlocked int    `json:"pointsUnlocked"`
}

// Loadout is the aggregate returned for one character.
type Loadout struct {
	Weapons      Weapons       `json:"weapons"`
	Armor        Armor         `json:"armor"`
	Subclass     *ItemSummary  `json:"subclass"`
	Stats        Stats         `json:"stats"`
	StatsSource  StatsSource   `json:"statsSource"`
	StatLines    []StatLine    `json:"statLines"`
	ArtifactMods []ArtifactMod `json:"artifactMods"`
}

// Item returns the summary in slot, or nil.
func (l *Loadout) Item(slot Slot) *ItemSummary {
	switch slot {
	case SlotKinetic:
		return l.Weapons.Kinetic
	case SlotEnergy:
		return l.Weapons.Energy
	case SlotPower:
		return l.Weapons.Power
	case SlotHelmet:
		return l.Armor.Helmet
	case SlotArms:
		return l.Armor.Arms
	case SlotChest:
		return l.Armor.Chest
	case SlotLegs:
		return l.Armor.Legs
	case SlotClassItem:
		return l.Armor.ClassItem
	case SlotSubclass:
		return l.Subclass
	}
	return nil
}

func (l *Loadout) set(slot Slot, s *ItemSummary) {
	switch slot {
	case SlotKinetic:
		l.Weapons.Kinetic = s
	case SlotEnergy:
		l.Weapons.Energy = s
	case SlotPower:
		l.Weapons.Power = s
	case SlotHelmet:
		l.Armor.Helmet = s
	case SlotArms:
		l.Armor.Arms = s
	case SlotChest:
		l.Armor.Chest = s
	case SlotLegs:
		l.Armor.Legs = s
	case SlotClassItem:
		l.Armor.ClassItem = s
	case SlotSubclass:
		l.Subclass = s
	}
}
