package loadout

import (
	"context"

	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
	"github.com/martinricard/d2loadout-widget/internal/manifest"
)

// ExtractArtifactMods lists the artifact perks that are both unlocked and
// slotted, in tier order then item order. A perk whose definition cannot be
// resolved is kept under UnknownModName.
//
// Postcondition: Returns a non-nil slice; empty when prog has no seasonal artifact.
func (e *Extractor) ExtractArtifactMods(ctx context.Context, prog *bungie.CharacterProgression) []ArtifactMod {
	mods := []ArtifactMod{}
	if prog == nil || prog.SeasonalArtifact == nil {
		return mods
	}

	var hashes []uint32
	for _, tier := range prog.SeasonalArtifact.Tiers {
		for _, it := range tier.Items {
			if it.IsActive && it.IsVisible {
				hashes = append(hashes, it.ItemHash)
			}
		}
	}
	defs := e.defs.ResolveMany(ctx, manifest.KindPlug, hashes)

	for _, tier := range prog.SeasonalArtifact.Tiers {
		for _, it := range tier.Items {
			if !it.IsActive || !it.IsVisible {
				continue
			}
			m := ArtifactMod{
				Name:      UnknownModName,
				Hash:      it.ItemHash,
				IsVisible: it.IsVisible,
				IsActive:  it.IsActive,
				TierHash:  tier.TierHash,
			}
			if d, ok := defs[it.ItemHash]; ok {
				m.Name = d.DisplayProperties.Name
				m.Description = d.DisplayProperties.Description
				m.Icon = d.DisplayProperties.Icon
				m.IconURL = bungie.IconURL(d.DisplayProperties.Icon)
			}
			mods = append(mods, m)
		}
	}
	return mods
}

// DescribeArtifact resolves the display fields of the profile's seasonal artifact.
//
// Postcondition: Returns nil when summary is nil; otherwise a non-nil ArtifactInfo,
// named "Unknown Artifact" when its definition cannot be resolved.
func (e *Extractor) DescribeArtifact(ctx context.Context, summary *bungie.ArtifactSummary) *ArtifactInfo {
	if summary == nil {
		return nil
	}
	info := &ArtifactInfo{
		Name:           "Unknown Artifact",
		PowerBonus:     summary.PowerBonus,
		PointsUnlocked: summary.PointsAcquired,
	}
	def, err := e.defs.Resolve(ctx, manifest.KindArtifact, summary.ArtifactHash)
	if err != nil {
		e.logger.Warn("artifact definition unavailable",
			zap.Uint32("hash", summary.ArtifactHash),
			zap.Error(err),
		)
		return info
	}
	if def.DisplayProperties.Name != "" {
		info.Name = def.DisplayProperties.Name
	}
	info.Icon = def.DisplayProperties.Icon
	info.IconURL = bungie.IconURL(def.DisplayProperties.Icon)
	return info
}
