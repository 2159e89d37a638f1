package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// Run represents a wishlist sync run
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Region      string     `json:"region"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Cell represents a recorded cell outcome for a run
type Cell struct {
	ID            int64     `json:"id"`
	RunID         uuid.UUID `json:"run_id"`
	CharacterID   int       `json:"character_id"`
	CharacterName string    `json:"character_name"`
	RaidID        int       `json:"raid_id"`
	RaidName      string    `json:"raid_name"`
	Difficulty    string    `json:"difficulty"`
	ConfigIndex   int       `json:"config_index"`
	JobID         *string   `json:"job_id,omitempty"`
	Outcome       string    `json:"outcome"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}
