// Package dimlink serializes an equipped loadout into a Destiny Item Manager
// deep link.
package dimlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/bungie"
	"github.com/martinricard/d2loadout-widget/internal/loadout"
	"github.com/martinricard/d2loadout-widget/internal/manifest"
)

// ErrSerialization is returned when the loadout cannot be encoded. Callers
// omit the link rather than failing the request.
var ErrSerialization = errors.New("dim loadout serialization failed")

// BaseURL is the DIM loadout import endpoint.
const BaseURL = "https://app.destinyitemmanager.com/loadouts?loadout="

// Input is everything the builder needs from one character's profile data.
type Input struct {
	DisplayName  string
	ClassType    int
	Equipment    []bungie.EquippedItem
	Components   bungie.ItemComponentSet
	ArtifactMods []loadout.ArtifactMod
}

// Shortener turns a long URL into a short one.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

// Builder assembles DIM loadouts. It is safe for concurrent use.
type Builder struct {
	defs      manifest.DefinitionSource
	cls       *loadout.Classifier
	shortener Shortener
	logger    *zap.Logger

	newID   func() string
	marshal func(any) ([]byte, error)
}

// NewBuilder creates a Builder. A nil shortener disables shortening.
//
// Precondition: defs, cls and logger must be non-nil.
// Postcondition: Returns a ready Builder.
func NewBuilder(defs manifest.DefinitionSource, cls *loadout.Classifier, shortener Shortener, logger *zap.Logger) *Builder {
	return &Builder{
		defs:      defs,
		cls:       cls,
		shortener: shortener,
		logger:    logger,
		newID:     uuid.NewString,
		marshal:   json.Marshal,
	}
}

// Build returns the DIM link for in, shortened when a shortener is configured.
// A shortener failure falls back to the long URL and is not an error.
//
// Postcondition: err wraps ErrSerialization when the payload cannot be encoded.
func (b *Builder) Build(ctx context.Context, in Input) (string, error) {
	long, err := b.LongURL(ctx, in)
	if err != nil {
		return "", err
	}
	if b.shortener == nil {
		return long, nil
	}
	short, err := b.shortener.Shorten(ctx, long)
	if err != nil {
		b.logger.Warn("link shortener failed, using long url", zap.Error(err))
		return long, nil
	}
	return short, nil
}

// LongURL returns the unshortened DIM link for in.
func (b *Builder) LongURL(ctx context.Context, in Input) (string, error) {
	payload, err := b.marshal(b.Loadout(ctx, in))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return BaseURL + url.QueryEscape(string(payload)), nil
}

// Loadout builds the DIM loadout document.
//
// Weapons and the subclass are always equipped. Armor is equipped only when
// its definition resolves as exotic; legendary armor is left for DIM's
// optimizer and contributes only its combat mods. Armor whose definition
// cannot be resolved is treated as legendary with no mods.
func (b *Builder) Loadout(ctx context.Context, in Input) Loadout {
	tax := b.cls.Taxonomy()
	bySlot := tax.FindBySlot(in.Equipment)

	l := Loadout{
		ID:         b.newID(),
		Name:       loadoutName(in.DisplayName),
		ClassType:  in.ClassType,
		Equipped:   []Item{},
		Unequipped: []Item{},
		Parameters: Parameters{
			Mods:            []uint32{},
			ArtifactUnlocks: ArtifactUnlocks{UnlockedItemHashes: []uint32{}},
		},
	}

	for _, slot := range loadout.Slots {
		item, ok := bySlot[slot]
		if !ok {
			continue
		}
		sockets := in.Components.SocketsFor(item.ItemInstanceID)
		if !slot.IsArmor() {
			l.Equipped = append(l.Equipped, equippedItem(item, sockets))
			continue
		}

		def, err := b.defs.Resolve(ctx, manifest.KindItem, item.ItemHash)
		if err != nil {
			b.logger.Warn("armor definition unavailable, omitting from link",
				zap.Uint32("hash", item.ItemHash),
				zap.Error(err),
			)
			continue
		}
		if def.Inventory.TierType == bungie.TierTypeExotic {
			l.Equipped = append(l.Equipped, equippedItem(item, sockets))
		}
		plugs := b.defs.ResolveMany(ctx, manifest.KindPlug, b.cls.PlugHashes(def, sockets))
		for _, m := range b.cls.ClassifyCombatMods(slot, def, sockets, plugs) {
			l.Parameters.Mods = append(l.Parameters.Mods, m.PlugHash)
		}
	}

	for _, m := range in.ArtifactMods {
		if m.IsVisible {
			l.Parameters.ArtifactUnlocks.UnlockedItemHashes = append(l.Parameters.ArtifactUnlocks.UnlockedItemHashes, m.Hash)
		}
	}
	return l
}

func equippedItem(item bungie.EquippedItem, sockets []bungie.Socket) Item {
	it := Item{ID: item.ItemInstanceID, Hash: item.ItemHash}
	for i, s := range sockets {
		if !s.Contributes() {
			continue
		}
		if it.SocketOverrides == nil {
			it.SocketOverrides = make(map[int]uint32)
		}
		it.SocketOverrides[i] = s.PlugHash
	}
	return it
}

func loadoutName(displayName string) string {
	if displayName == "" {
		displayName = "Guardian"
	}
	return displayName + "'s Loadout"
}
