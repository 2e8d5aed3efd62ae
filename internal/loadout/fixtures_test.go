package loadout

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
	"github.com/martinricard/d2loadout-widget/internal/manifest"
)

// fakeDefs is an in-memory manifest.DefinitionSource; unknown hashes are not found.
type fakeDefs struct {
	mu   sync.Mutex
	defs map[uint32]*bungie.Definition
}

func newFakeDefs(defs ...*bungie.Definition) *fakeDefs {
	f := &fakeDefs{defs: make(map[uint32]*bungie.Definition)}
	for _, d := range defs {
		f.defs[d.Hash] = d
	}
	return f
}

func (f *fakeDefs) add(defs ...*bungie.Definition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range defs {
		f.defs[d.Hash] = d
	}
}

func (f *fakeDefs) Resolve(_ context.Context, kind manifest.Kind, hash uint32) (*bungie.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.defs[hash]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s %d", manifest.ErrNotFound, kind, hash)
}

func (f *fakeDefs) ResolveMany(ctx context.Context, kind manifest.Kind, hashes []uint32) map[uint32]*bungie.Definition {
	out := make(map[uint32]*bungie.Definition)
	for _, h := range hashes {
		if d, err := f.Resolve(ctx, kind, h); err == nil {
			out[h] = d
		}
	}
	return out
}

func newTestExtractor(t *testing.T, defs *fakeDefs) *Extractor {
	t.Helper()
	return NewExtractor(defs, DefaultTaxonomy(), zaptest.NewLogger(t))
}

// entries builds n socket entries that all draw from a plug set.
func entries(n int) []bungie.SocketEntry {
	out := make([]bungie.SocketEntry, n)
	for i := range out {
		out[i] = bungie.SocketEntry{SocketTypeHash: uint32(1000 + i), ReusablePlugSetHash: uint32(2000 + i)}
	}
	return out
}

func itemDef(hash uint32, name string, itemType bungie.ItemType, tier bungie.TierType, sockets int) *bungie.Definition {
	tierName := "Legendary"
	if tier == bungie.TierTypeExotic {
		tierName = "Exotic"
	}
	return &bungie.Definition{
		Hash:                hash,
		DisplayProperties:   bungie.DisplayProperties{Name: name, Icon: fmt.Sprintf("/icons/%d.jpg", hash)},
		ItemType:            itemType,
		ItemTypeDisplayName: name + " type",
		Inventory:           bungie.InventoryBlock{TierType: tier, TierTypeName: tierName},
		Sockets:             bungie.SocketsBlock{SocketEntries: entries(sockets)},
	}
}

func plugDef(hash uint32, name, description string) *bungie.Definition {
	return &bungie.Definition{
		Hash:              hash,
		DisplayProperties: bungie.DisplayProperties{Name: name, Description: description, Icon: fmt.Sprintf("/plugs/%d.png", hash)},
	}
}

func modDef(hash uint32, name, category string, categoryHash uint32, deltas ...bungie.InvestmentStat) *bungie.Definition {
	return &bungie.Definition{
		Hash:              hash,
		DisplayProperties: bungie.DisplayProperties{Name: name},
		ItemType:          bungie.ItemTypeMod,
		Plug:              bungie.PlugBlock{PlugCategoryIdentifier: category, PlugCategoryHash: categoryHash},
		InvestmentStats:   deltas,
	}
}

func subclassPlugDef(hash uint32, name, category, label string) *bungie.Definition {
	return &bungie.Definition{
		Hash:                hash,
		DisplayProperties:   bungie.DisplayProperties{Name: name},
		ItemTypeDisplayName: label,
		Plug:                bungie.PlugBlock{PlugCategoryIdentifier: category},
	}
}

func on(plug uint32) bungie.Socket { return bungie.Socket{PlugHash: plug, IsEnabled: true, IsVisible: true} }
func off(plug uint32) bungie.Socket { return bungie.Socket{PlugHash: plug, IsEnabled: false, IsVisible: true} }
func hidden(plug uint32) bungie.Socket {
	return bungie.Socket{PlugHash: plug, IsEnabled: true, IsVisible: false}
}

func plugMap(defs ...*bungie.Definition) map[uint32]*bungie.Definition {
	out := make(map[uint32]*bungie.Definition, len(defs))
	for _, d := range defs {
		out[d.Hash] = d
	}
	return out
}

// components assembles an ItemComponentSet from per-instance sockets and stats.
func components() bungie.ItemComponentSet {
	return bungie.ItemComponentSet{
		Instances: bungie.Component[map[string]bungie.ItemInstance]{Data: map[string]bungie.ItemInstance{}},
		Stats:     bungie.Component[map[string]bungie.ItemStats]{Data: map[string]bungie.ItemStats{}},
		Sockets:   bungie.Component[map[string]bungie.ItemSockets]{Data: map[string]bungie.ItemSockets{}},
	}
}

func withSockets(c bungie.ItemComponentSet, id string, sockets ...bungie.Socket) {
	c.Sockets.Data[id] = bungie.ItemSockets{Sockets: sockets}
}

func withStats(c bungie.ItemComponentSet, id string, stats map[uint32]int) {
	out := make(map[uint32]bungie.StatValue, len(stats))
	for h, v := range stats {
		out[h] = bungie.StatValue{StatHash: h, Value: v}
	}
	c.Stats.Data[id] = bungie.ItemStats{Stats: out}
}

func equipped(tax *Taxonomy, slot Slot, hash uint32, id string) bungie.EquippedItem {
	return bungie.EquippedItem{ItemHash: hash, ItemInstanceID: id, BucketHash: tax.BucketFor(slot)}
}

// Stat hashes from taxonomy.yaml.
const (
	hashMobility   uint32 = 2996146975
	hashResilience uint32 = 392767087
	hashRecovery   uint32 = 1943323491
	hashDiscipline uint32 = 1735777505
	hashIntellect  uint32 = 144602215
	hashStrength   uint32 = 4244567218
)
