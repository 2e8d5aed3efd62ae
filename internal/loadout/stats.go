package loadout

// Stat values are clamped to this range.
const (
	MinStatValue = 0
	MaxStatValue = 200
)

// ComputeStats produces the six character stats from exactly one source. The
// API-reported final block wins whenever it carries at least one known stat;
// otherwise armor instance stats are summed together with the investment
// deltas of each piece's classified combat mods.
//
// Postcondition: every known stat name is present and clamped to [MinStatValue, MaxStatValue].
// The result does not depend on the order of armor.
func ComputeStats(tax *Taxonomy, characterStats map[uint32]int, armor []*ItemSummary) (Stats, StatsSource) {
	if final, ok := finalStats(tax, characterStats); ok {
		return final, StatsSourceCharacter
	}

	totals := make(map[string]int, len(tax.Stats))
	for _, piece := range armor {
		if piece == nil {
			continue
		}
		for hash, sv := range piece.Stats {
			if def, ok := tax.Stat(hash); ok {
				totals[def.Name] += sv.Value
			}
		}
		for _, m := range piece.Mods {
			for _, d := range m.Stats {
				if def, ok := tax.Stat(d.StatHash); ok {
					totals[def.Name] += d.Value
				}
			}
		}
	}
	return clampAll(tax, totals), StatsSourceArmor
}

func finalStats(tax *Taxonomy, characterStats map[uint32]int) (Stats, bool) {
	raw := make(map[string]int, len(tax.Stats))
	found := false
	for hash, v := range characterStats {
		if def, ok := tax.Stat(hash); ok {
			raw[def.Name] = v
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return clampAll(tax, raw), true
}

func clampAll(tax *Taxonomy, raw map[string]int) Stats {
	out := make(Stats, len(tax.Stats))
	for _, def := range tax.Stats {
		out[def.Name] = min(max(raw[def.Name], MinStatValue), MaxStatValue)
	}
	return out
}

// StatLines orders stats for display with their renamed labels and tiers (value/10).
func StatLines(tax *Taxonomy, stats Stats) []StatLine {
	lines := make([]StatLine, 0, len(tax.Stats))
	for _, def := range tax.Stats {
		v := stats[def.Name]
		display := def.Display
		if display == "" {
			display = def.Name
		}
		lines = append(lines, StatLine{Name: def.Name, DisplayName: display, Value: v, Tier: v / 10})
	}
	return lines
}
