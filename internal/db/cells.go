package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// -----------------------------------------------------------------------------
// Cell Ledger Methods
// -----------------------------------------------------------------------------

// RecordCell stores one cell outcome for a run
func (db *DB) RecordCell(ctx context.Context, runID uuid.UUID, rec types.CellRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO wishlist_cells (run_id, character_id, character_name, raid_id, raid_name,
		                             difficulty, config_index, job_id, outcome, error_message, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		runID, rec.CharacterID, rec.CharacterName, rec.RaidID, rec.RaidName,
		string(rec.Difficulty), rec.ConfigIndex, nullable(rec.JobID), string(rec.Outcome),
		nullable(rec.Error), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record cell: %w", err)
	}
	return nil
}

// ListCells retrieves all cells for a run, optionally filtered by outcome
func (db *DB) ListCells(ctx context.Context, runID uuid.UUID, outcome *types.CellOutcome) ([]Cell, error) {
	query := `SELECT id, run_id, character_id, character_name, raid_id, raid_name, difficulty,
	                 config_index, job_id, outcome, error_message, duration_ms, created_at
	          FROM wishlist_cells
	          WHERE run_id = $1`
	args := []interface{}{runID}

	if outcome != nil {
		query += " AND outcome = $2"
		args = append(args, string(*outcome))
	}

	query += " ORDER BY id"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	defer rows.Close()

	var cells []Cell
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.ID, &c.RunID, &c.CharacterID, &c.CharacterName, &c.RaidID,
			&c.RaidName, &c.Difficulty, &c.ConfigIndex, &c.JobID, &c.Outcome,
			&c.ErrorMessage, &c.DurationMs, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// RunLedger records cells against a single run.
type RunLedger struct {
	db    *DB
	runID uuid.UUID
}

// Ledger binds the cell ledger to runID.
func (db *DB) Ledger(runID uuid.UUID) *RunLedger {
	return &RunLedger{db: db, runID: runID}
}

// RecordCell stores rec under the bound run.
func (l *RunLedger) RecordCell(ctx context.Context, rec types.CellRecord) error {
	return l.db.RecordCell(ctx, l.runID, rec)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
