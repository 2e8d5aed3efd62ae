package dimlink

// Loadout is the DIM loadout document carried in the link payload.
type Loadout struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ClassType  int        `json:"classType"`
	ClearSpace bool       `json:"clearSpace"`
	Equipped   []Item     `json:"equipped"`
	Unequipped []Item     `json:"unequipped"`
	Parameters Parameters `json:"parameters"`
}

// Item is one equipped item. SocketOverrides maps socket index to plug hash.
type Item struct {
	ID              string         `json:"id"`
	Hash            uint32         `json:"hash"`
	SocketOverrides map[int]uint32 `json:"socketOverrides,omitempty"`
}

// Parameters carries the loadout-wide settings DIM applies on import.
type Parameters struct {
	Mods            []uint32        `json:"mods"`
	ArtifactUnlocks ArtifactUnlocks `json:"artifactUnlocks"`
}

// ArtifactUnlocks lists the artifact perks to slot.
type ArtifactUnlocks struct {
	UnlockedItemHashes []uint32 `json:"unlockedItemHashes"`
}
