package bungie

import (
	"encoding/json"
	"time"
)

// envelope is the wrapper Bungie puts around every platform response.
type envelope[T any] struct {
	Response        T      `json:"Response"`
	ErrorCode       int    `json:"ErrorCode"`
	ThrottleSeconds int    `json:"ThrottleSeconds"`
	ErrorStatus     string `json:"ErrorStatus"`
	Message         string `json:"Message"`
}

// ErrorCodeSuccess is the ErrorCode Bungie reports for a successful call.
const ErrorCodeSuccess = 1

// SystemDestiny2 is the CoreSettings system entry of the game APIs.
const SystemDestiny2 = "Destiny2"

// CoreSettings is the subset of the platform settings used for status checks.
type CoreSettings struct {
	Systems map[string]CoreSystem `json:"systems"`
}

// CoreSystem reports whether one platform system is enabled.
type CoreSystem struct {
	Enabled bool `json:"enabled"`
}

// UserInfoCard is a single hit from SearchDestinyPlayer.
type UserInfoCard struct {
	MembershipID   string `json:"membershipId"`
	MembershipType int    `json:"membershipType"`
	DisplayName    string `json:"displayName"`
	IconPath       string `json:"iconPath"`
}

// DisplayProperties is the name/description/icon block shared by all definitions.
type DisplayProperties struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	HasIcon     bool   `json:"hasIcon"`
}

// Definition is a static manifest entry. The same shape is used for
// DestinyInventoryItemDefinition and DestinyArtifactDefinition; fields that do
// not apply to an entity type decode as their zero values.
type Definition struct {
	Hash                 uint32            `json:"hash"`
	DisplayProperties    DisplayProperties `json:"displayProperties"`
	ItemType             ItemType          `json:"itemType"`
	ItemTypeDisplayName  string            `json:"itemTypeDisplayName"`
	Inventory            InventoryBlock    `json:"inventory"`
	Sockets              SocketsBlock      `json:"sockets"`
	Quality              *QualityBlock     `json:"quality,omitempty"`
	InvestmentStats      []InvestmentStat  `json:"investmentStats"`
	Plug                 PlugBlock         `json:"plug"`
	IconWatermark        string            `json:"iconWatermark"`
	IconWatermarkShelved string            `json:"iconWatermarkShelved"`
	Tiers                []ArtifactTierDef `json:"tiers,omitempty"`
}

// ItemType mirrors DestinyItemType.
type ItemType int

// Item types referenced by the loadout extractor.
const (
	ItemTypeArmor    ItemType = 2
	ItemTypeWeapon   ItemType = 3
	ItemTypeSubclass ItemType = 16
	ItemTypeMod      ItemType = 19
)

// TierType mirrors the inventory tier (rarity) enumeration.
type TierType int

// Rarity tiers.
const (
	TierTypeUnknown  TierType = 0
	TierTypeCurrency TierType = 1
	TierTypeBasic    TierType = 2
	TierTypeCommon   TierType = 3
	TierTypeRare     TierType = 4
	TierTypeSuperior TierType = 5
	TierTypeExotic   TierType = 6
)

// InventoryBlock holds rarity and bucket information for an item definition.
type InventoryBlock struct {
	BucketTypeHash uint32   `json:"bucketTypeHash"`
	TierType       TierType `json:"tierType"`
	TierTypeName   string   `json:"tierTypeName"`
}

// SocketsBlock lists the static socket layout of an item.
type SocketsBlock struct {
	SocketEntries []SocketEntry `json:"socketEntries"`
}

// SocketEntry is one static socket descriptor.
type SocketEntry struct {
	SocketTypeHash        uint32 `json:"socketTypeHash"`
	SingleInitialItemHash uint32 `json:"singleInitialItemHash"`
	ReusablePlugSetHash   uint32 `json:"reusablePlugSetHash"`
	RandomizedPlugSetHash uint32 `json:"randomizedPlugSetHash"`
}

// HasPlugSet reports whether the socket draws its plugs from a reusable or
// randomized plug set.
func (e SocketEntry) HasPlugSet() bool {
	return e.ReusablePlugSetHash != 0 || e.RandomizedPlugSetHash != 0
}

// QualityBlock carries the tiered-weapon versions introduced with Edge of Fate.
type QualityBlock struct {
	CurrentVersion int              `json:"currentVersion"`
	Versions       []QualityVersion `json:"versions"`
}

// QualityVersion is one tier-specific override.
type QualityVersion struct {
	PowerCapHash      uint32             `json:"powerCapHash"`
	DisplayProperties *DisplayProperties `json:"displayProperties,omitempty"`
}

// InvestmentStat is a stat delta granted by an item or plug.
type InvestmentStat struct {
	StatTypeHash          uint32 `json:"statTypeHash"`
	Value                 int    `json:"value"`
	IsConditionallyActive bool   `json:"isConditionallyActive"`
}

// PlugBlock describes how a definition behaves when inserted into a socket.
type PlugBlock struct {
	PlugCategoryIdentifier string `json:"plugCategoryIdentifier"`
	PlugCategoryHash       uint32 `json:"plugCategoryHash"`
}

// ArtifactTierDef is a tier in DestinyArtifactDefinition.
type ArtifactTierDef struct {
	TierHash uint32            `json:"tierHash"`
	Items    []ArtifactItemDef `json:"items"`
}

// ArtifactItemDef is a perk slot in an artifact tier definition.
type ArtifactItemDef struct {
	ItemHash uint32 `json:"itemHash"`
}

// Profile is the GetProfile response for components 100,104,200,202,205,300,304,305.
// Every component is optional upstream; absent components decode to empty values.
type Profile struct {
	Profile               Component[ProfileData]                     `json:"profile"`
	ProfileProgression    Component[ProfileProgression]              `json:"profileProgression"`
	Characters            Component[map[string]Character]            `json:"characters"`
	CharacterProgressions Component[map[string]CharacterProgression] `json:"characterProgressions"`
	CharacterEquipment    Component[map[string]Inventory]            `json:"characterEquipment"`
	ItemComponents        ItemComponentSet                           `json:"itemComponents"`
}

// Component wraps a single profile component payload.
type Component[T any] struct {
	Data T `json:"data"`
}

// ProfileData is component 100.
type ProfileData struct {
	UserInfo UserInfoCard `json:"userInfo"`
}

// ProfileProgression is component 104.
type ProfileProgression struct {
	SeasonalArtifact *ArtifactSummary `json:"seasonalArtifact,omitempty"`
}

// ArtifactSummary is the profile-scoped seasonal artifact state.
type ArtifactSummary struct {
	ArtifactHash   uint32 `json:"artifactHash"`
	PointsAcquired int    `json:"pointsAcquired"`
	PowerBonus     int    `json:"powerBonus"`
}

// Character is component 200 for one character.
type Character struct {
	CharacterID          string         `json:"characterId"`
	DateLastPlayed       time.Time      `json:"dateLastPlayed"`
	Light                int            `json:"light"`
	ClassType            int            `json:"classType"`
	RaceType             int            `json:"raceType"`
	EmblemPath           string         `json:"emblemPath"`
	EmblemBackgroundPath string         `json:"emblemBackgroundPath"`
	Stats                map[uint32]int `json:"stats"`
}

// UnmarshalJSON decodes a character. An empty or unparsable dateLastPlayed
// decodes as the zero time instead of failing the whole profile.
func (c *Character) UnmarshalJSON(data []byte) error {
	type plain Character
	aux := struct {
		*plain
		DateLastPlayed string `json:"dateLastPlayed"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.DateLastPlayed = parseTimestamp(aux.DateLastPlayed)
	return nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CharacterProgression is component 202 for one character.
type CharacterProgression struct {
	SeasonalArtifact *CharacterArtifact `json:"seasonalArtifact,omitempty"`
}

// CharacterArtifact is the per-character artifact perk state.
type CharacterArtifact struct {
	ArtifactHash uint32         `json:"artifactHash"`
	Tiers        []ArtifactTier `json:"tiers"`
}

// ArtifactTier is one unlocked/locked tier of artifact perks.
type ArtifactTier struct {
	TierHash   uint32         `json:"tierHash"`
	IsUnlocked bool           `json:"isUnlocked"`
	Items      []ArtifactItem `json:"items"`
}

// ArtifactItem is one artifact perk. IsActive means unlocked, IsVisible means slotted.
type ArtifactItem struct {
	ItemHash  uint32 `json:"itemHash"`
	IsActive  bool   `json:"isActive"`
	IsVisible bool   `json:"isVisible"`
}

// Inventory is component 205 for one character.
type Inventory struct {
	Items []EquippedItem `json:"items"`
}

// EquippedItem is an item reference in a character's equipment buckets.
type EquippedItem struct {
	ItemHash              uint32 `json:"itemHash"`
	ItemInstanceID        string `json:"itemInstanceId"`
	BucketHash            uint32 `json:"bucketHash"`
	OverrideStyleItemHash uint32 `json:"overrideStyleItemHash"`
	State                 int    `json:"state"`
}

// ItemComponentSet holds components 300, 304 and 305 keyed by instance id.
type ItemComponentSet struct {
	Instances Component[map[string]ItemInstance] `json:"instances"`
	Stats     Component[map[string]ItemStats]    `json:"stats"`
	Sockets   Component[map[string]ItemSockets]  `json:"sockets"`
}

// Instance returns the instance component for id, or the zero value.
func (s ItemComponentSet) Instance(id string) ItemInstance {
	return s.Instances.Data[id]
}

// StatsFor returns the stats component for id, or the zero value.
func (s ItemComponentSet) StatsFor(id string) ItemStats {
	return s.Stats.Data[id]
}

// SocketsFor returns the socket list for id. A missing component yields no sockets.
func (s ItemComponentSet) SocketsFor(id string) []Socket {
	return s.Sockets.Data[id].Sockets
}

// ItemInstance is component 300.
type ItemInstance struct {
	DamageType  int          `json:"damageType"`
	PrimaryStat *PrimaryStat `json:"primaryStat,omitempty"`
	Energy      *Energy      `json:"energy,omitempty"`
	ItemLevel   int          `json:"itemLevel"`
	Quality     int          `json:"quality"`
}

// PrimaryStat is the power (light) stat of an instance.
type PrimaryStat struct {
	StatHash uint32 `json:"statHash"`
	Value    int    `json:"value"`
}

// Energy is the armor energy block of an instance.
type Energy struct {
	EnergyTypeHash uint32 `json:"energyTypeHash"`
	EnergyCapacity int    `json:"energyCapacity"`
	EnergyUsed     int    `json:"energyUsed"`
	EnergyUnused   int    `json:"energyUnused"`
}

// ItemStats is component 304.
type ItemStats struct {
	Stats map[uint32]StatValue `json:"stats"`
}

// StatValue is one computed stat on an instance.
type StatValue struct {
	StatHash uint32 `json:"statHash"`
	Value    int    `json:"value"`
}

// ItemSockets is component 305.
type ItemSockets struct {
	Sockets []Socket `json:"sockets"`
}

// Socket is the live state of one socket on an instance.
type Socket struct {
	PlugHash  uint32 `json:"plugHash"`
	IsEnabled bool   `json:"isEnabled"`
	IsVisible bool   `json:"isVisible"`
}

// Contributes reports whether the socket holds a plug that is switched on.
func (s Socket) Contributes() bool {
	return s.PlugHash != 0 && s.IsEnabled
}
