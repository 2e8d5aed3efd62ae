package loadout

import (
	"context"

	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
	"github.com/martinricard/d2loadout-widget/internal/manifest"
)

// DefaultConcurrency bounds how many items of one loadout are summarized in parallel.
const DefaultConcurrency = 9

// Extractor builds item summaries, loadouts and artifact mod lists from
// profile data, resolving definitions through a manifest.DefinitionSource.
type Extractor struct {
	defs        manifest.DefinitionSource
	cls         *Classifier
	logger      *zap.Logger
	concurrency int
}

// NewExtractor creates an Extractor.
//
// Precondition: defs, tax and logger must be non-nil.
// Postcondition: Returns a ready Extractor.
func NewExtractor(defs manifest.DefinitionSource, tax *Taxonomy, logger *zap.Logger) *Extractor {
	return &Extractor{
		defs:        defs,
		cls:         NewClassifier(tax),
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
}

// Classifier returns the socket classifier used by the extractor.
func (e *Extractor) Classifier() *Classifier { return e.cls }

// Summarize builds the summary of one equipped item. When the item definition
// cannot be resolved the result is a stub named UnknownItemName that still
// carries the item's hash and instance id.
//
// Postcondition: Returns a non-nil summary whose Hash and InstanceID equal item's.
func (e *Extractor) Summarize(ctx context.Context, item bungie.EquippedItem, comps bungie.ItemComponentSet) *ItemSummary {
	slot, _ := e.cls.tax.SlotFor(item.BucketHash)

	def, err := e.defs.Resolve(ctx, manifest.KindItem, item.ItemHash)
	if err != nil {
		e.logger.Warn("item definition unavailable, using stub",
			zap.Uint32("hash", item.ItemHash),
			zap.String("instance_id", item.ItemInstanceID),
			zap.Error(err),
		)
		return &ItemSummary{
			Name:       UnknownItemName,
			Hash:       item.ItemHash,
			InstanceID: item.ItemInstanceID,
			Slot:       slot,
		}
	}

	sockets := comps.SocketsFor(item.ItemInstanceID)
	instance := comps.Instance(item.ItemInstanceID)
	plugs := e.defs.ResolveMany(ctx, manifest.KindPlug, e.cls.PlugHashes(def, sockets))

	var ornament *bungie.Definition
	if item.OverrideStyleItemHash != 0 {
		ornament, err = e.defs.Resolve(ctx, manifest.KindItem, item.OverrideStyleItemHash)
		if err != nil {
			e.logger.Warn("ornament definition unavailable",
				zap.Uint32("hash", item.OverrideStyleItemHash),
				zap.Error(err),
			)
			ornament = nil
		}
	}

	s := &ItemSummary{
		Name:                  def.DisplayProperties.Name,
		Description:           def.DisplayProperties.Description,
		Icon:                  def.DisplayProperties.Icon,
		Hash:                  item.ItemHash,
		InstanceID:            item.ItemInstanceID,
		Slot:                  slot,
		ItemType:              def.ItemTypeDisplayName,
		TierType:              def.Inventory.TierTypeName,
		IsExotic:              def.Inventory.TierType == bungie.TierTypeExotic,
		DamageType:            instance.DamageType,
		PrimaryStat:           instance.PrimaryStat,
		Stats:                 comps.StatsFor(item.ItemInstanceID).Stats,
		Energy:                instance.Energy,
		State:                 item.State,
		OverrideStyleItemHash: item.OverrideStyleItemHash,
		IconWatermark:         def.IconWatermark,
		IconWatermarkShelved:  def.IconWatermarkShelved,
		Sockets:               SocketSnapshot(sockets),
	}
	if s.TierType == "" {
		s.TierType = "Common"
	}
	if s.Stats == nil {
		s.Stats = map[uint32]bungie.StatValue{}
	}
	applyDisplayOverrides(s, def, ornament)

	tier := -1
	if def.ItemType == bungie.ItemTypeWeapon {
		if t, ok := e.cls.WeaponTier(def, ornament); ok {
			tier = t
			s.WeaponTier = &t
		}
	}
	s.WeaponPerks = e.cls.ClassifyWeaponPerks(def, sockets, plugs, tier)
	s.ExoticPerks = e.cls.ClassifyExoticClassPerks(slot, def, sockets, plugs)
	s.Mods = e.cls.ClassifyCombatMods(slot, def, sockets, plugs)
	if slot == SlotSubclass {
		s.Aspects, s.Fragments = e.cls.ClassifySubclassPlugs(def, sockets, plugs)
	}
	return s
}

// applyDisplayOverrides applies the current quality version's name and icon,
// then the ornament icon, so an ornament always wins.
func applyDisplayOverrides(s *ItemSummary, def, ornament *bungie.Definition) {
	if q := def.Quality; q != nil && q.CurrentVersion >= 0 && q.CurrentVersion < len(q.Versions) {
		if dp := q.Versions[q.CurrentVersion].DisplayProperties; dp != nil {
			if dp.Icon != "" {
				s.Icon = dp.Icon
			}
			if dp.Name != "" {
				s.Name = dp.Name
			}
		}
	}
	if ornament != nil && ornament.DisplayProperties.Icon != "" {
		s.Icon = ornament.DisplayProperties.Icon
	}
	s.IconURL = bungie.IconURL(s.Icon)
}
