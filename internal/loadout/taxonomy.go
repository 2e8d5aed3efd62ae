package loadout

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Slot identifies one of the nine loadout equipment buckets.
type Slot string

const (
	// SlotKinetic is the kinetic weapon bucket.
	SlotKinetic Slot = "kinetic"
	// SlotEnergy is the energy weapon bucket.
	SlotEnergy Slot = "energy"
	// SlotPower is the power (heavy) weapon bucket.
	SlotPower Slot = "power"
	// SlotHelmet is the helmet bucket.
	SlotHelmet Slot = "helmet"
	// SlotArms is the gauntlets bucket.
	SlotArms Slot = "arms"
	// SlotChest is the chest armor bucket.
	SlotChest Slot = "chest"
	// SlotLegs is the leg armor bucket.
	SlotLegs Slot = "legs"
	// SlotClassItem is the class item bucket.
	SlotClassItem Slot = "class_item"
	// SlotSubclass is the subclass bucket.
	SlotSubclass Slot = "subclass"
)

// Slots lists every loadout slot in display order.
var Slots = []Slot{
	SlotKinetic, SlotEnergy, SlotPower,
	SlotHelmet, SlotArms, SlotChest, SlotLegs, SlotClassItem,
	SlotSubclass,
}

// IsWeapon reports whether s is one of the three weapon slots.
func (s Slot) IsWeapon() bool {
	return s == SlotKinetic || s == SlotEnergy || s == SlotPower
}

// IsArmor reports whether s is one of the five armor slots.
func (s Slot) IsArmor() bool {
	switch s {
	case SlotHelmet, SlotArms, SlotChest, SlotLegs, SlotClassItem:
		return true
	}
	return false
}

// StatDef maps a stat hash to its manifest name and on-screen label.
type StatDef struct {
	Hash    uint32 `yaml:"hash"`
	Name    string `yaml:"name"`
	Display string `yaml:"display"`
}

// WeaponPerkRules configures main-perk extraction.
type WeaponPerkRules struct {
	SocketIndexes       []int    `yaml:"socket_indexes"`
	Max                 int      `yaml:"max"`
	EnhancedName        string   `yaml:"enhanced_name"`
	EnhancedPhrases     []string `yaml:"enhanced_phrases"`
	EnhancedMinTier     int      `yaml:"enhanced_min_tier"`
	OrnamentTierPattern string   `yaml:"ornament_tier_pattern"`
}

// ExoticClassItemRules configures exotic class item perk extraction.
type ExoticClassItemRules struct {
	PerkPrefix string `yaml:"perk_prefix"`
}

// SubclassRules configures aspect and fragment detection.
type SubclassRules struct {
	AspectCategory   string `yaml:"aspect_category"`
	AspectType       string `yaml:"aspect_type"`
	FragmentCategory string `yaml:"fragment_category"`
	FragmentType     string `yaml:"fragment_type"`
}

// ModRules configures combat mod export filtering.
type ModRules struct {
	ArmorPrefixes             []string `yaml:"armor_prefixes"`
	LegacyArmorPrefixes       []string `yaml:"legacy_armor_prefixes"`
	WeaponPrefixes            []string `yaml:"weapon_prefixes"`
	ExcludedCategoryHashes    []uint32 `yaml:"excluded_category_hashes"`
	ExcludedCategoryFragments []string `yaml:"excluded_category_fragments"`
	ExcludedNameFragments     []string `yaml:"excluded_name_fragments"`
	ExcludedNames             []string `yaml:"excluded_names"`
	FlatStatPattern           string   `yaml:"flat_stat_pattern"`
}

// Taxonomy is the single table of bucket, stat and plug-category constants
// shared by the socket classifier and the DIM link builder.
type Taxonomy struct {
	Buckets         map[Slot]uint32      `yaml:"buckets"`
	Stats           []StatDef            `yaml:"stats"`
	WeaponPerks     WeaponPerkRules      `yaml:"weapon_perks"`
	ExoticClassItem ExoticClassItemRules `yaml:"exotic_class_item"`
	Subclass        SubclassRules        `yaml:"subclass"`
	Mods            ModRules             `yaml:"mods"`

	slotByBucket     map[uint32]Slot
	statByHash       map[uint32]StatDef
	excludedCategory map[uint32]bool
	ornamentTier     *regexp.Regexp
	flatStat         *regexp.Regexp
}

// LoadTaxonomy parses and validates a taxonomy document.
//
// Precondition: data is a YAML document shaped like taxonomy.yaml.
// Postcondition: Returns a ready Taxonomy or a non-nil error.
func LoadTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("LoadTaxonomy: cannot parse: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("LoadTaxonomy: %w", err)
	}
	if err := t.index(); err != nil {
		return nil, fmt.Errorf("LoadTaxonomy: %w", err)
	}
	return &t, nil
}

var defaultTaxonomy = sync.OnceValues(func() (*Taxonomy, error) {
	return LoadTaxonomy(defaultTaxonomyYAML)
})

// DefaultTaxonomy returns the embedded taxonomy. It panics if the embedded
// document is invalid, which can only happen through a bad edit of taxonomy.yaml.
func DefaultTaxonomy() *Taxonomy {
	t, err := defaultTaxonomy()
	if err != nil {
		panic(err)
	}
	return t
}

// Validate checks that the Taxonomy satisfies its invariants.
//
// Postcondition: returns nil iff every slot has a bucket hash and every rule table is populated.
func (t *Taxonomy) Validate() error {
	var errs []error
	for _, s := range Slots {
		if t.Buckets[s] == 0 {
			errs = append(errs, fmt.Errorf("bucket %q must be set", s))
		}
	}
	if len(t.Stats) == 0 {
		errs = append(errs, errors.New("stats must not be empty"))
	}
	for _, s := range t.Stats {
		if s.Hash == 0 || s.Name == "" {
			errs = append(errs, fmt.Errorf("stat %+v needs a hash and a name", s))
		}
	}
	if t.WeaponPerks.Max < 1 {
		errs = append(errs, errors.New("weapon_perks.max must be >= 1"))
	}
	if len(t.WeaponPerks.SocketIndexes) == 0 {
		errs = append(errs, errors.New("weapon_perks.socket_indexes must not be empty"))
	}
	if t.ExoticClassItem.PerkPrefix == "" {
		errs = append(errs, errors.New("exotic_class_item.perk_prefix must not be empty"))
	}
	if t.Subclass.AspectCategory == "" || t.Subclass.FragmentCategory == "" {
		errs = append(errs, errors.New("subclass categories must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("taxonomy validation failed: %v", errs)
	}
	return nil
}

func (t *Taxonomy) index() error {
	t.slotByBucket = make(map[uint32]Slot, len(t.Buckets))
	for slot, hash := range t.Buckets {
		t.slotByBucket[hash] = slot
	}
	t.statByHash = make(map[uint32]StatDef, len(t.Stats))
	for _, s := range t.Stats {
		t.statByHash[s.Hash] = s
	}
	t.excludedCategory = make(map[uint32]bool, len(t.Mods.ExcludedCategoryHashes))
	for _, h := range t.Mods.ExcludedCategoryHashes {
		t.excludedCategory[h] = true
	}
	var err error
	if t.WeaponPerks.OrnamentTierPattern != "" {
		if t.ornamentTier, err = regexp.Compile(t.WeaponPerks.OrnamentTierPattern); err != nil {
			return fmt.Errorf("ornament_tier_pattern: %w", err)
		}
	}
	if t.Mods.FlatStatPattern != "" {
		if t.flatStat, err = regexp.Compile(t.Mods.FlatStatPattern); err != nil {
			return fmt.Errorf("flat_stat_pattern: %w", err)
		}
	}
	return nil
}

// SlotFor returns the loadout slot of a bucket hash.
//
// Postcondition: ok is false for buckets outside the nine loadout slots (emblem, ghost, ship...).
func (t *Taxonomy) SlotFor(bucketHash uint32) (slot Slot, ok bool) {
	slot, ok = t.slotByBucket[bucketHash]
	return slot, ok
}

// BucketFor returns the bucket hash of a slot.
func (t *Taxonomy) BucketFor(slot Slot) uint32 { return t.Buckets[slot] }

// Stat returns the stat definition for a hash.
func (t *Taxonomy) Stat(hash uint32) (StatDef, bool) {
	s, ok := t.statByHash[hash]
	return s, ok
}

func (t *Taxonomy) isExcludedCategory(hash uint32, identifier string) bool {
	if t.excludedCategory[hash] {
		return true
	}
	id := strings.ToLower(identifier)
	for _, frag := range t.Mods.ExcludedCategoryFragments {
		if strings.Contains(id, frag) {
			return true
		}
	}
	return false
}

func (t *Taxonomy) isExcludedName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return true
	}
	for _, frag := range t.Mods.ExcludedNameFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	for _, n := range t.Mods.ExcludedNames {
		if lower == n {
			return true
		}
	}
	return t.flatStat != nil && t.flatStat.MatchString(name)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
