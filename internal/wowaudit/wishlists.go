package wowaudit

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// Wishlists is the /v1/wishlists payload.
type Wishlists struct {
	Characters []WishlistCharacter `json:"characters"`
}

// WishlistCharacter holds one character's per-instance wishlist state.
type WishlistCharacter struct {
	ID        int                `json:"id"`
	Name      string             `json:"name"`
	Instances []WishlistInstance `json:"instances"`
}

// WishlistInstance is one raid instance with its difficulties.
type WishlistInstance struct {
	ID           int                  `json:"id"`
	Name         string               `json:"name"`
	Difficulties []WishlistDifficulty `json:"difficulties"`
}

// WishlistDifficulty carries the upload times for one difficulty.
type WishlistDifficulty struct {
	Difficulty string `json:"difficulty"`
	Wishlist   *struct {
		UpdatedAt UpdatedAt `json:"updated_at"`
	} `json:"wishlist"`
}

// UpdatedAt maps a wishlist configuration name to its last upload time. A nil
// value means that configuration was never uploaded. A bare timestamp string is
// accepted and filed under DefaultConfigurationName.
type UpdatedAt map[string]*string

// UnmarshalJSON accepts null, a timestamp string or an object of timestamps.
func (u *UpdatedAt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*u = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var ts string
		if err := json.Unmarshal(data, &ts); err != nil {
			return err
		}
		*u = UpdatedAt{DefaultConfigurationName: &ts}
		return nil
	}
	var entries map[string]*string
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*u = entries
	return nil
}

// Updates returns one entry per configuration in name order. Unparseable
// timestamps become nil entries.
func (u UpdatedAt) Updates() []types.WishlistUpdate {
	names := make([]string, 0, len(u))
	for name := range u {
		names = append(names, name)
	}
	sort.Strings(names)

	updates := make([]types.WishlistUpdate, 0, len(names))
	for _, name := range names {
		update := types.WishlistUpdate{Configuration: name}
		if v := u[name]; v != nil {
			update.UpdatedAt = ParseTimestamp(*v)
		}
		updates = append(updates, update)
	}
	return updates
}

// Raids returns every instance in first-seen order across characters.
func (w *Wishlists) Raids() []types.RaidInstance {
	seen := make(map[int]bool)
	var raids []types.RaidInstance
	for _, c := range w.Characters {
		for _, inst := range c.Instances {
			if seen[inst.ID] {
				continue
			}
			seen[inst.ID] = true
			raids = append(raids, types.RaidInstance{ID: inst.ID, Name: inst.Name})
		}
	}
	return raids
}

// Difficulties returns every difficulty label in first-seen order.
func (w *Wishlists) Difficulties() []types.Difficulty {
	seen := make(map[types.Difficulty]bool)
	var difficulties []types.Difficulty
	for _, c := range w.Characters {
		for _, inst := range c.Instances {
			for _, d := range inst.Difficulties {
				label := types.Difficulty(d.Difficulty)
				if seen[label] {
					continue
				}
				seen[label] = true
				difficulties = append(difficulties, label)
			}
		}
	}
	return difficulties
}

// History builds the read-only update snapshot. Every listed difficulty gets
// at least one entry; a difficulty with no timestamps gets a single nil entry,
// which the staleness check treats as "never updated".
func (w *Wishlists) History() types.UpdateHistory {
	history := make(types.UpdateHistory)
	for _, c := range w.Characters {
		for _, inst := range c.Instances {
			for _, d := range inst.Difficulties {
				difficulty := types.Difficulty(d.Difficulty)
				var updates []types.WishlistUpdate
				if d.Wishlist != nil {
					updates = d.Wishlist.UpdatedAt.Updates()
				}
				if len(updates) == 0 {
					history.Add(c.ID, inst.ID, difficulty, types.WishlistUpdate{})
					continue
				}
				for _, update := range updates {
					history.Add(c.ID, inst.ID, difficulty, update)
				}
			}
		}
	}
	return history
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a WoWAudit timestamp and normalizes it to UTC. Offsets
// are honoured; timestamps without one are taken as UTC. Returns nil when the
// value cannot be parsed.
func ParseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}
