package types

import "time"

// CellOutcome is what happened to one (character, raid, difficulty, config) unit.
type CellOutcome string

const (
	OutcomeSkipped      CellOutcome = "skipped"
	OutcomeLaunchFailed CellOutcome = "launch_failed"
	OutcomePollFailed   CellOutcome = "poll_failed"
	OutcomeUploaded     CellOutcome = "uploaded"
	OutcomeUploadFailed CellOutcome = "upload_failed"
)

// Outcomes lists every cell outcome in report order.
var Outcomes = []CellOutcome{
	OutcomeUploaded,
	OutcomeSkipped,
	OutcomeLaunchFailed,
	OutcomePollFailed,
	OutcomeUploadFailed,
}

// Valid reports whether o is a known outcome.
func (o CellOutcome) Valid() bool {
	for _, known := range Outcomes {
		if o == known {
			return true
		}
	}
	return false
}

// CellRecord is one ledger row. ConfigIndex is -1 for whole-cell skips.
type CellRecord struct {
	CharacterID   int           `json:"character_id"`
	CharacterName string        `json:"character_name"`
	RaidID        int           `json:"raid_id"`
	RaidName      string        `json:"raid_name"`
	Difficulty    Difficulty    `json:"difficulty"`
	ConfigIndex   int           `json:"config_index"`
	JobID         string        `json:"job_id,omitempty"`
	Outcome       CellOutcome   `json:"outcome"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}
