package types

import "fmt"

// Uncapped is the upgrade level meaning "use the maximum available item level".
const Uncapped = 0

// SimulationConfig is one indexed Droptimizer configuration built from overrides.
type SimulationConfig struct {
	Index             int                `json:"index"`
	FightDuration     int                `json:"fight_duration"`
	FightStyle        string             `json:"fight_style"`
	MatchEquippedGear bool               `json:"match_equipped_gear"`
	NumberOfBosses    int                `json:"number_of_bosses"`
	PowerInfusion     bool               `json:"power_infusion"`
	Sockets           bool               `json:"sockets"`
	UpgradeLevel      map[Difficulty]int `json:"upgrade_level,omitempty"`
}

// UpgradeLevelFor returns the configured cap for a difficulty, matching labels
// case-insensitively. Absent entries are Uncapped.
func (c SimulationConfig) UpgradeLevelFor(d Difficulty) int {
	if level, ok := c.UpgradeLevel[d]; ok {
		return level
	}
	for k, level := range c.UpgradeLevel {
		if k.Key() == d.Key() {
			return level
		}
	}
	return Uncapped
}

// SimSettings is a SimulationConfig resolved for a single difficulty.
type SimSettings struct {
	Index             int    `json:"index"`
	FightDuration     int    `json:"fight_duration"`
	FightStyle        string `json:"fight_style"`
	MatchEquippedGear bool   `json:"match_equipped_gear"`
	NumberOfBosses    int    `json:"number_of_bosses"`
	PowerInfusion     bool   `json:"power_infusion"`
	Sockets           bool   `json:"sockets"`
	UpgradeLevel      int    `json:"upgrade_level"`
}

// String renders the settings compactly for logs and plan output.
func (s SimSettings) String() string {
	upgrade := "uncapped"
	if s.UpgradeLevel != Uncapped {
		upgrade = fmt.Sprintf("%d", s.UpgradeLevel)
	}
	return fmt.Sprintf("#%d %s %ds bosses=%d equipped=%t pi=%t sockets=%t upgrade=%s",
		s.Index, s.FightStyle, s.FightDuration, s.NumberOfBosses,
		s.MatchEquippedGear, s.PowerInfusion, s.Sockets, upgrade)
}

// JobState is the Raidbots job lifecycle state.
type JobState string

const (
	JobQueued   JobState = "queued"
	JobRunning  JobState = "running"
	JobComplete JobState = "complete"
	JobNotFound JobState = "not_found"
	JobUnknown  JobState = "unknown"
)

// IsTerminal reports whether polling should stop. Both terminal states count as success.
func (s JobState) IsTerminal() bool {
	return s == JobComplete || s == JobNotFound
}

// SimJob is a status snapshot of one Raidbots job. Progress and queue fields are best effort.
type SimJob struct {
	ID            string   `json:"id"`
	State         JobState `json:"state"`
	Progress      *float64 `json:"progress,omitempty"`
	QueuePosition *int     `json:"queue_position,omitempty"`
	QueueTotal    *int     `json:"queue_total,omitempty"`
}
