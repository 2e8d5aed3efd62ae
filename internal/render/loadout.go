package render

import (
	"fmt"
	"strings"

	"github.com/martinricard/d2loadout-widget/internal/loadout"
	"github.com/martinricard/d2loadout-widget/internal/widget"
)

var slotLabels = map[loadout.Slot]string{
	loadout.SlotKinetic:   "Kinetic",
	loadout.SlotEnergy:    "Energy",
	loadout.SlotPower:     "Power",
	loadout.SlotHelmet:    "Helmet",
	loadout.SlotArms:      "Arms",
	loadout.SlotChest:     "Chest",
	loadout.SlotLegs:      "Legs",
	loadout.SlotClassItem: "Class Item",
	loadout.SlotSubclass:  "Subclass",
}

// Result formats a loadout response as colored terminal text.
func Result(res *widget.Result) string {
	var b strings.Builder

	b.WriteString(Colorf(BrightYellow+Bold, "%s", res.DisplayName))
	b.WriteString(Colorf(Dim, " (%s)", res.PlatformName))
	b.WriteString("\n")
	b.WriteString(Colorf(White, "%s  Light %d", res.Character.Class, res.Character.Light))
	b.WriteString("\n")
	if res.Loadout != nil {
		b.WriteString(Loadout(res.Loadout))
	}
	if a := res.Artifact; a != nil {
		b.WriteString(Colorf(Magenta, "Artifact: %s (+%d, %d points)", a.Name, a.PowerBonus, a.PointsUnlocked))
		b.WriteString("\n")
	}
	if res.DIMLink != "" {
		b.WriteString(Colorize(Cyan, "DIM: ") + res.DIMLink + "\n")
	}
	return b.String()
}

// Loadout formats the slots, stats and artifact mods of a loadout.
func Loadout(l *loadout.Loadout) string {
	var b strings.Builder

	for _, slot := range loadout.Slots {
		item := l.Item(slot)
		if item == nil {
			b.WriteString(fmt.Sprintf("  %s%-10s%s %s\n", BrightCyan, slotLabels[slot], Reset, Colorize(Dim, "(empty)")))
			continue
		}
		name := item.Name
		if item.IsExotic {
			name = Colorize(BrightYellow, name)
		}
		line := fmt.Sprintf("  %s%-10s%s %s", BrightCyan, slotLabels[slot], Reset, name)
		if item.WeaponTier != nil {
			line += Colorf(Dim, " [tier %d]", *item.WeaponTier+1)
		}
		b.WriteString(line + "\n")
		writePerks(&b, item)
	}

	if len(l.StatLines) > 0 {
		parts := make([]string, 0, len(l.StatLines))
		for _, s := range l.StatLines {
			parts = append(parts, fmt.Sprintf("%s %d", s.DisplayName, s.Value))
		}
		b.WriteString(Colorize(Green, "Stats: "+strings.Join(parts, " | ")))
		b.WriteString("\n")
	}

	if len(l.ArtifactMods) > 0 {
		names := make([]string, 0, len(l.ArtifactMods))
		for _, m := range l.ArtifactMods {
			names = append(names, m.Name)
		}
		b.WriteString(Colorf(Magenta, "Artifact mods: %s", strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func writePerks(b *strings.Builder, item *loadout.ItemSummary) {
	var perks []string
	for _, p := range item.WeaponPerks {
		name := p.Name
		if p.IsEnhanced {
			name += "+"
		}
		perks = append(perks, name)
	}
	for _, p := range item.ExoticPerks {
		perks = append(perks, p.Name)
	}
	if len(perks) > 0 {
		b.WriteString(Colorf(White, "      %s", strings.Join(perks, ", ")))
		b.WriteString("\n")
	}
	for _, group := range []struct {
		label string
		plugs []loadout.SubclassPlug
	}{{"Aspects", item.Aspects}, {"Fragments", item.Fragments}} {
		if len(group.plugs) == 0 {
			continue
		}
		names := make([]string, 0, len(group.plugs))
		for _, p := range group.plugs {
			names = append(names, p.Name)
		}
		b.WriteString(Colorf(Yellow, "      %s: %s", group.label, strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	if len(item.Mods) > 0 {
		names := make([]string, 0, len(item.Mods))
		for _, m := range item.Mods {
			names = append(names, m.Name)
		}
		b.WriteString(Colorf(Dim, "      mods: %s", strings.Join(names, ", ")))
		b.WriteString("\n")
	}
}
