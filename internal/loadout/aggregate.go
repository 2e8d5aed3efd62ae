package loadout

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
)

// FindBySlot picks at most one equipped item per loadout slot. When a bucket
// appears more than once the first occurrence wins; items in non-loadout
// buckets are ignored.
func (t *Taxonomy) FindBySlot(items []bungie.EquippedItem) map[Slot]bungie.EquippedItem {
	out := make(map[Slot]bungie.EquippedItem, len(Slots))
	for _, it := range items {
		slot, ok := t.SlotFor(it.BucketHash)
		if !ok {
			continue
		}
		if _, dup := out[slot]; dup {
			continue
		}
		out[slot] = it
	}
	return out
}

// Aggregate builds the loadout of one character. Present items are summarized
// concurrently and joined before stats are computed; empty slots stay nil.
// ArtifactMods is left empty for the caller to fill.
//
// Postcondition: Returns a non-nil Loadout with non-nil Stats and ArtifactMods.
func (e *Extractor) Aggregate(ctx context.Context, ch bungie.Character, items []bungie.EquippedItem, comps bungie.ItemComponentSet) *Loadout {
	bySlot := e.cls.tax.FindBySlot(items)

	summaries := make([]*ItemSummary, len(Slots))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, slot := range Slots {
		item, ok := bySlot[slot]
		if !ok {
			continue
		}
		g.Go(func() error {
			summaries[i] = e.Summarize(ctx, item, comps)
			return nil
		})
	}
	_ = g.Wait()

	l := &Loadout{ArtifactMods: []ArtifactMod{}}
	for i, slot := range Slots {
		l.set(slot, summaries[i])
	}
	l.Stats, l.StatsSource = ComputeStats(e.cls.tax, ch.Stats, l.Armor.Pieces())
	l.StatLines = StatLines(e.cls.tax, l.Stats)
	return l
}
