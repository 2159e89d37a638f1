// Package types defines the shared data model for the wishlist sync pipeline.
package types

import (
	"strings"
	"time"
	"unicode"
)

// Character is a roster member as reported by WoWAudit.
type Character struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Realm string `json:"realm"`
	Role  string `json:"role"`
}

// FullName returns the "Name-Realm" form used in logs.
func (c Character) FullName() string {
	return c.Name + "-" + c.Realm
}

// RaidInstance is a raid content release. Exactly one instance is current per run.
type RaidInstance struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	IsCurrentTier bool   `json:"current"`
}

// Difficulty is an opaque raid difficulty label such as "normal" or "mythic".
type Difficulty string

// Key returns the normalized form used to compare difficulty labels.
func (d Difficulty) Key() string {
	return NormalizeLabel(string(d))
}

// NormalizeLabel strips everything but letters and digits and lowercases the rest.
// Raidbots and WoWAudit disagree on spacing and casing, so labels are compared in this form.
func NormalizeLabel(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// WishlistUpdate is one timestamped wishlist entry for a cell.
type WishlistUpdate struct {
	Configuration string     `json:"configuration,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// UpdateHistory maps character ID -> raid ID -> difficulty -> wishlist updates.
// It is a snapshot taken at run start and must not be mutated afterwards.
type UpdateHistory map[int]map[int]map[Difficulty][]WishlistUpdate

// Cell returns the updates for one (character, raid, difficulty) cell.
// A missing cell yields nil, which callers treat as "never updated".
func (h UpdateHistory) Cell(characterID, raidID int, difficulty Difficulty) []WishlistUpdate {
	raids, ok := h[characterID]
	if !ok {
		return nil
	}
	difficulties, ok := raids[raidID]
	if !ok {
		return nil
	}
	return difficulties[difficulty]
}

// Add appends an update to a cell, creating intermediate maps as needed.
// Only used while building the snapshot.
func (h UpdateHistory) Add(characterID, raidID int, difficulty Difficulty, update WishlistUpdate) {
	raids, ok := h[characterID]
	if !ok {
		raids = make(map[int]map[Difficulty][]WishlistUpdate)
		h[characterID] = raids
	}
	difficulties, ok := raids[raidID]
	if !ok {
		difficulties = make(map[Difficulty][]WishlistUpdate)
		raids[raidID] = difficulties
	}
	difficulties[difficulty] = append(difficulties[difficulty], update)
}
