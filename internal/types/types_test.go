package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "heroic", NormalizeLabel("Heroic"))
	assert.Equal(t, "patchwerk", NormalizeLabel(" Patch-werk "))
	assert.Equal(t, "5bosses", NormalizeLabel("5 Bosses"))
	assert.Equal(t, Difficulty("MYTHIC").Key(), Difficulty("mythic").Key())
}

func TestUpdateHistory_CellAndAdd(t *testing.T) {
	h := UpdateHistory{}
	assert.Nil(t, h.Cell(1, 42, "heroic"))

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h.Add(1, 42, "heroic", WishlistUpdate{Configuration: "Single Target", UpdatedAt: &ts})
	h.Add(1, 42, "heroic", WishlistUpdate{Configuration: "Council"})

	cell := h.Cell(1, 42, "heroic")
	assert.Len(t, cell, 2)
	assert.Equal(t, &ts, cell[0].UpdatedAt)
	assert.Nil(t, h.Cell(1, 42, "mythic"))
	assert.Nil(t, h.Cell(2, 42, "heroic"))
}

func TestUpgradeLevelFor(t *testing.T) {
	cfg := SimulationConfig{UpgradeLevel: map[Difficulty]int{"Heroic": 4}}

	assert.Equal(t, 4, cfg.UpgradeLevelFor("Heroic"))
	assert.Equal(t, 4, cfg.UpgradeLevelFor("heroic"))
	assert.Equal(t, Uncapped, cfg.UpgradeLevelFor("mythic"))
	assert.Equal(t, Uncapped, SimulationConfig{}.UpgradeLevelFor("normal"))
}

func TestJobState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		terminal bool
	}{
		{JobQueued, false},
		{JobRunning, false},
		{JobUnknown, false},
		{JobComplete, true},
		{JobNotFound, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestSimSettingsString(t *testing.T) {
	s := SimSettings{Index: 2, FightStyle: "Patchwerk", FightDuration: 300, NumberOfBosses: 1}
	assert.Contains(t, s.String(), "upgrade=uncapped")

	s.UpgradeLevel = 6
	assert.Contains(t, s.String(), "#2 Patchwerk 300s")
	assert.Contains(t, s.String(), "upgrade=6")
}

func TestCharacterFullName(t *testing.T) {
	assert.Equal(t, "Zulrak-Twisting Nether", Character{Name: "Zulrak", Realm: "Twisting Nether"}.FullName())
}

func TestCellOutcome_Valid(t *testing.T) {
	for _, o := range Outcomes {
		assert.True(t, o.Valid(), o)
	}
	assert.False(t, CellOutcome("exploded").Valid())
	assert.False(t, CellOutcome("").Valid())
}
