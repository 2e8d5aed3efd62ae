package loadout

import (
	"slices"
	"strconv"
	"strings"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
)

// Classifier sorts the sockets of one item into weapon perks, exotic class
// item perks, subclass aspects and fragments, and exportable combat mods.
//
// Every method takes plug definitions that were resolved up front; a plug
// missing from the map is treated as unresolvable and skipped. Only the
// prefix of instance sockets that has a matching definition socket entry is
// examined, and only sockets with a plug that is enabled ever contribute.
type Classifier struct {
	tax *Taxonomy
}

// NewClassifier creates a Classifier over tax.
//
// Precondition: tax must be non-nil.
func NewClassifier(tax *Taxonomy) *Classifier {
	return &Classifier{tax: tax}
}

// Taxonomy returns the table the classifier was built with.
func (c *Classifier) Taxonomy() *Taxonomy { return c.tax }

func overlap(sockets []bungie.Socket, def *bungie.Definition) int {
	return min(len(sockets), len(def.Sockets.SocketEntries))
}

// PlugHashes returns the distinct plug hashes of contributing sockets in the
// overlapping prefix, in socket order.
func (c *Classifier) PlugHashes(def *bungie.Definition, sockets []bungie.Socket) []uint32 {
	n := overlap(sockets, def)
	out := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		s := sockets[i]
		if s.Contributes() && !slices.Contains(out, s.PlugHash) {
			out = append(out, s.PlugHash)
		}
	}
	return out
}

// WeaponTier derives the 0-based weapon tier. The quality block supplies the
// tier when it carries versions; an ornament whose description names
// "Tier N" overrides it with N-1.
//
// Postcondition: ok is false when neither source yields a tier.
func (c *Classifier) WeaponTier(def, ornament *bungie.Definition) (tier int, ok bool) {
	if def.Quality != nil && len(def.Quality.Versions) > 0 {
		tier, ok = def.Quality.CurrentVersion, true
	}
	if ornament == nil || c.tax.ornamentTier == nil {
		return tier, ok
	}
	m := c.tax.ornamentTier.FindStringSubmatch(ornament.DisplayProperties.Description)
	if m == nil {
		return tier, ok
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return tier, ok
	}
	return n - 1, true
}

// ClassifyWeaponPerks returns at most WeaponPerks.Max main perks taken from
// the configured socket indexes in ascending order. A socket qualifies when
// its plug is enabled and visible and its definition entry draws from a plug set.
// tier is the weapon tier from WeaponTier, or -1 when unknown.
func (c *Classifier) ClassifyWeaponPerks(def *bungie.Definition, sockets []bungie.Socket, plugs map[uint32]*bungie.Definition, tier int) []Perk {
	if def.ItemType != bungie.ItemTypeWeapon {
		return nil
	}
	rules := c.tax.WeaponPerks
	indexes := slices.Sorted(slices.Values(rules.SocketIndexes))
	n := overlap(sockets, def)

	var perks []Perk
	for _, i := range indexes {
		if len(perks) >= rules.Max {
			break
		}
		if i < 0 || i >= n {
			continue
		}
		s, entry := sockets[i], def.Sockets.SocketEntries[i]
		if !s.Contributes() || !s.IsVisible || entry.SocketTypeHash == 0 || !entry.HasPlugSet() {
			continue
		}
		p, ok := plugs[s.PlugHash]
		if !ok {
			continue
		}
		perk := newPerk(p, s.PlugHash, i)
		perk.IsEnhanced = c.isEnhanced(p, tier)
		perks = append(perks, perk)
	}
	return perks
}

func (c *Classifier) isEnhanced(p *bungie.Definition, tier int) bool {
	rules := c.tax.WeaponPerks
	if rules.EnhancedName != "" && strings.Contains(p.DisplayProperties.Name, rules.EnhancedName) {
		return true
	}
	desc := strings.ToLower(p.DisplayProperties.Description)
	for _, phrase := range rules.EnhancedPhrases {
		if strings.Contains(desc, strings.ToLower(phrase)) {
			return true
		}
	}
	return tier >= rules.EnhancedMinTier
}

// ClassifyExoticClassPerks returns the "Spirit of" perks of an exotic class
// item. Every contributing socket is considered; the name prefix match is case-sensitive.
func (c *Classifier) ClassifyExoticClassPerks(slot Slot, def *bungie.Definition, sockets []bungie.Socket, plugs map[uint32]*bungie.Definition) []Perk {
	if slot != SlotClassItem || def.Inventory.TierType != bungie.TierTypeExotic {
		return nil
	}
	prefix := c.tax.ExoticClassItem.PerkPrefix
	var perks []Perk
	for i := 0; i < overlap(sockets, def); i++ {
		s := sockets[i]
		if !s.Contributes() {
			continue
		}
		p, ok := plugs[s.PlugHash]
		if !ok || !strings.HasPrefix(p.DisplayProperties.Name, prefix) {
			continue
		}
		perks = append(perks, newPerk(p, s.PlugHash, i))
	}
	return perks
}

// ClassifySubclassPlugs splits the enabled and visible plugs of a subclass
// into aspects and fragments by plug category identifier or item type label.
func (c *Classifier) ClassifySubclassPlugs(def *bungie.Definition, sockets []bungie.Socket, plugs map[uint32]*bungie.Definition) (aspects, fragments []SubclassPlug) {
	rules := c.tax.Subclass
	for i := 0; i < overlap(sockets, def); i++ {
		s := sockets[i]
		if !s.Contributes() || !s.IsVisible {
			continue
		}
		p, ok := plugs[s.PlugHash]
		if !ok {
			continue
		}
		category := p.Plug.PlugCategoryIdentifier
		label := p.ItemTypeDisplayName
		plug := SubclassPlug{
			Name:        p.DisplayProperties.Name,
			Description: p.DisplayProperties.Description,
			Icon:        p.DisplayProperties.Icon,
			IconURL:     bungie.IconURL(p.DisplayProperties.Icon),
			PlugHash:    s.PlugHash,
			ItemType:    label,
			Category:    category,
		}
		switch {
		case strings.Contains(category, rules.AspectCategory) || (rules.AspectType != "" && strings.Contains(label, rules.AspectType)):
			aspects = append(aspects, plug)
		case strings.Contains(category, rules.FragmentCategory) || (rules.FragmentType != "" && strings.Contains(label, rules.FragmentType)):
			fragments = append(fragments, plug)
		}
	}
	return aspects, fragments
}

// ClassifyCombatMods returns the exportable combat mods of a weapon or armor
// item. Cosmetic, intrinsic, masterwork and flat stat plugs never qualify,
// even when visible.
func (c *Classifier) ClassifyCombatMods(slot Slot, def *bungie.Definition, sockets []bungie.Socket, plugs map[uint32]*bungie.Definition) []Mod {
	if !slot.IsArmor() && !slot.IsWeapon() {
		return nil
	}
	var mods []Mod
	for i := 0; i < overlap(sockets, def); i++ {
		s := sockets[i]
		if !s.Contributes() || !s.IsVisible {
			continue
		}
		p, ok := plugs[s.PlugHash]
		if !ok {
			continue
		}
		kind, ok := c.ModKind(slot, p)
		if !ok {
			continue
		}
		mods = append(mods, Mod{
			Name:        p.DisplayProperties.Name,
			Description: p.DisplayProperties.Description,
			Icon:        p.DisplayProperties.Icon,
			IconURL:     bungie.IconURL(p.DisplayProperties.Icon),
			PlugHash:    s.PlugHash,
			SocketIndex: i,
			Kind:        kind,
			Stats:       investmentDeltas(p),
		})
	}
	return mods
}

// ModKind reports whether plug p is an exportable combat mod for slot, and which kind.
func (c *Classifier) ModKind(slot Slot, p *bungie.Definition) (ModKind, bool) {
	if p.ItemType != bungie.ItemTypeMod {
		return "", false
	}
	if c.tax.isExcludedCategory(p.Plug.PlugCategoryHash, p.Plug.PlugCategoryIdentifier) ||
		c.tax.isExcludedName(p.DisplayProperties.Name) {
		return "", false
	}
	rules := c.tax.Mods
	id := p.Plug.PlugCategoryIdentifier
	switch {
	case hasAnyPrefix(id, rules.ArmorPrefixes):
		return ModKindArmor, true
	case hasAnyPrefix(id, rules.LegacyArmorPrefixes):
		return ModKindLegacyArmor, true
	case slot.IsWeapon() && hasAnyPrefix(id, rules.WeaponPrefixes):
		return ModKindWeapon, true
	}
	return "", false
}

// SocketSnapshot lists every contributing socket of an instance, including
// sockets beyond the definition's entries.
func SocketSnapshot(sockets []bungie.Socket) []SocketPlug {
	out := make([]SocketPlug, 0, len(sockets))
	for i, s := range sockets {
		if s.Contributes() {
			out = append(out, SocketPlug{Index: i, PlugHash: s.PlugHash, IsVisible: s.IsVisible})
		}
	}
	return out
}

func investmentDeltas(p *bungie.Definition) []StatDelta {
	var out []StatDelta
	for _, st := range p.InvestmentStats {
		if st.Value == 0 || st.IsConditionallyActive {
			continue
		}
		out = append(out, StatDelta{StatHash: st.StatTypeHash, Value: st.Value})
	}
	return out
}

func newPerk(p *bungie.Definition, plugHash uint32, index int) Perk {
	return Perk{
		Name:        p.DisplayProperties.Name,
		Description: p.DisplayProperties.Description,
		Icon:        p.DisplayProperties.Icon,
		IconURL:     bungie.IconURL(p.DisplayProperties.Icon),
		PlugHash:    plugHash,
		SocketIndex: index,
	}
}
