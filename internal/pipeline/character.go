package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonathan/wishlist-sync/internal/config"
	"github.com/jonathan/wishlist-sync/internal/raidbots"
	"github.com/jonathan/wishlist-sync/internal/staleness"
	"github.com/jonathan/wishlist-sync/internal/types"
)

// errMissingJobID is recorded when the launcher returns without a job.
var errMissingJobID = errors.New("launcher returned no job id")

// Launcher starts one Droptimizer job and returns its ID.
type Launcher interface {
	Start(ctx context.Context, req raidbots.SimRequest) (string, error)
}

// Waiter blocks until a job reaches a terminal state.
type Waiter interface {
	Wait(ctx context.Context, jobID string, log *slog.Logger) (*types.SimJob, error)
}

// Uploader pushes a finished job to WoWAudit.
type Uploader interface {
	SubmitWishlist(ctx context.Context, character types.Character, jobID string) error
}

// Ledger records cell outcomes.
type Ledger interface {
	RecordCell(ctx context.Context, rec types.CellRecord) error
}

// NopLedger discards records. Used when no database is configured.
type NopLedger struct{}

func (NopLedger) RecordCell(context.Context, types.CellRecord) error { return nil }

// Action is the decision taken for one cell.
type Action string

const (
	ActionRun           Action = "run"
	ActionSkipUpToDate  Action = "skip_up_to_date"
	ActionSkipRaidLevel Action = "skip_raid"
)

// CellPlan is the decision for one (raid, difficulty) cell of a character.
type CellPlan struct {
	Raid        types.RaidInstance
	Difficulty  types.Difficulty
	Action      Action
	LastUpdated *time.Time
	Settings    []types.SimSettings
}

// CharacterReport tallies what happened to one character.
type CharacterReport struct {
	Character   types.Character
	Records     []types.CellRecord
	Interrupted bool
	Duration    time.Duration
}

// Count returns how many records ended with outcome.
func (r *CharacterReport) Count(outcome types.CellOutcome) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == outcome {
			n++
		}
	}
	return n
}

// CharacterPipeline processes one character at a time: raids in plan order,
// difficulties in plan order, configurations in index order. Nothing inside a
// character runs concurrently.
type CharacterPipeline struct {
	launcher   Launcher
	waiter     Waiter
	uploader   Uploader
	ledger     Ledger
	evaluator  *staleness.Evaluator
	skipPolicy config.SkipPolicy
	logger     *slog.Logger
}

// NewCharacterPipeline wires the collaborators. A nil ledger discards records.
func NewCharacterPipeline(launcher Launcher, waiter Waiter, uploader Uploader, ledger Ledger,
	evaluator *staleness.Evaluator, skipPolicy config.SkipPolicy, logger *slog.Logger) *CharacterPipeline {
	if ledger == nil {
		ledger = NopLedger{}
	}
	if evaluator == nil {
		evaluator = staleness.NewEvaluator(staleness.DefaultMaxAge)
	}
	if skipPolicy == "" {
		skipPolicy = config.SkipContinue
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CharacterPipeline{
		launcher:   launcher,
		waiter:     waiter,
		uploader:   uploader,
		ledger:     ledger,
		evaluator:  evaluator,
		skipPolicy: skipPolicy,
		logger:     logger,
	}
}

// Decide evaluates one cell against the history snapshot and resolves the
// settings to use. Older raids always run uncapped.
func (p *CharacterPipeline) Decide(plan *Plan, character types.Character, raid types.RaidInstance, difficulty types.Difficulty) CellPlan {
	entries := plan.History.Cell(character.ID, raid.ID, difficulty)
	cell := CellPlan{Raid: raid, Difficulty: difficulty, Action: ActionRun}
	if latest, ok := staleness.Latest(entries); ok {
		cell.LastUpdated = &latest
	}
	if p.evaluator.IsUpToDate(entries) {
		cell.Action = ActionSkipUpToDate
		return cell
	}

	configured := plan.Matrix[difficulty]
	cell.Settings = make([]types.SimSettings, len(configured))
	copy(cell.Settings, configured)
	if !raid.IsCurrentTier {
		for i := range cell.Settings {
			cell.Settings[i].UpgradeLevel = types.Uncapped
		}
	}
	return cell
}

// PlanCells returns every cell decision for a character without launching anything.
func (p *CharacterPipeline) PlanCells(plan *Plan, character types.Character) []CellPlan {
	var cells []CellPlan
	for _, raid := range plan.Raids {
		skipRest := false
		for _, d := range plan.Difficulties {
			if skipRest {
				cells = append(cells, CellPlan{Raid: raid, Difficulty: d, Action: ActionSkipRaidLevel})
				continue
			}
			cell := p.Decide(plan, character, raid, d)
			cells = append(cells, cell)
			if cell.Action == ActionSkipUpToDate && p.skipPolicy == config.SkipBreakRaid {
				skipRest = true
			}
		}
	}
	return cells
}

// Run processes every cell for character. Per-cell failures are logged and
// recorded; they never stop the character. Run returns early only when ctx ends.
func (p *CharacterPipeline) Run(ctx context.Context, plan *Plan, character types.Character) *CharacterReport {
	started := time.Now()
	report := &CharacterReport{Character: character}
	log := p.logger.With("character", character.FullName())
	log.Info("processing character")

	defer func() {
		report.Duration = time.Since(started)
		log.Info("character finished",
			"uploaded", report.Count(types.OutcomeUploaded),
			"skipped", report.Count(types.OutcomeSkipped),
			"failed", len(report.Records)-report.Count(types.OutcomeUploaded)-report.Count(types.OutcomeSkipped),
			"duration", report.Duration.Round(time.Second))
	}()

	for _, raid := range plan.Raids {
		for _, d := range plan.Difficulties {
			if ctx.Err() != nil {
				report.Interrupted = true
				log.Warn("character interrupted", "error", ctx.Err())
				return report
			}

			cellLog := log.With("raid", raid.Name, "difficulty", string(d))
			cell := p.Decide(plan, character, raid, d)
			if cell.Action == ActionSkipUpToDate {
				cellLog.Info("skip cell, wishlist is up to date", "last_updated", cell.LastUpdated)
				p.record(ctx, cellLog, report, types.CellRecord{
					CharacterID:   character.ID,
					CharacterName: character.Name,
					RaidID:        raid.ID,
					RaidName:      raid.Name,
					Difficulty:    d,
					ConfigIndex:   -1,
					Outcome:       types.OutcomeSkipped,
				})
				if p.skipPolicy == config.SkipBreakRaid {
					break
				}
				continue
			}

			for _, s := range cell.Settings {
				if ctx.Err() != nil {
					break
				}
				p.runSettings(ctx, cellLog, plan, report, raid, d, s)
			}
		}
	}
	return report
}

// runSettings launches, waits for and uploads one configuration of a cell.
func (p *CharacterPipeline) runSettings(ctx context.Context, log *slog.Logger, plan *Plan, report *CharacterReport,
	raid types.RaidInstance, difficulty types.Difficulty, s types.SimSettings) {
	character := report.Character
	started := time.Now()
	rec := types.CellRecord{
		CharacterID:   character.ID,
		CharacterName: character.Name,
		RaidID:        raid.ID,
		RaidName:      raid.Name,
		Difficulty:    difficulty,
		ConfigIndex:   s.Index,
	}
	log = log.With("config", s.Index)

	jobID, err := p.launcher.Start(ctx, raidbots.SimRequest{
		Region:        plan.Region,
		Realm:         character.Realm,
		CharacterName: character.Name,
		Raid:          raid,
		Difficulty:    difficulty,
		Settings:      s,
	})
	if err == nil && jobID == "" {
		err = errMissingJobID
	}
	if err != nil {
		log.Error("sim launch failed", "error", err)
		p.finish(ctx, log, report, rec, started, types.OutcomeLaunchFailed, err)
		return
	}
	rec.JobID = jobID
	log.Info("sim started", "job_id", jobID, "settings", s.String())

	if _, err := p.waiter.Wait(ctx, jobID, log); err != nil {
		log.Error("sim did not finish", "job_id", jobID, "error", err)
		p.finish(ctx, log, report, rec, started, types.OutcomePollFailed, err)
		return
	}

	if err := p.uploader.SubmitWishlist(ctx, character, jobID); err != nil {
		log.Error("wishlist upload failed", "job_id", jobID, "error", err)
		p.finish(ctx, log, report, rec, started, types.OutcomeUploadFailed, err)
		return
	}
	log.Info("wishlist uploaded", "job_id", jobID)
	p.finish(ctx, log, report, rec, started, types.OutcomeUploaded, nil)
}

func (p *CharacterPipeline) finish(ctx context.Context, log *slog.Logger, report *CharacterReport,
	rec types.CellRecord, started time.Time, outcome types.CellOutcome, err error) {
	rec.Outcome = outcome
	rec.Duration = time.Since(started)
	if err != nil {
		rec.Error = err.Error()
	}
	p.record(ctx, log, report, rec)
}

func (p *CharacterPipeline) record(ctx context.Context, log *slog.Logger, report *CharacterReport, rec types.CellRecord) {
	report.Records = append(report.Records, rec)
	// Ledger writes outlive cancellation so interrupted runs keep their history.
	if err := p.ledger.RecordCell(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("failed to record cell", "outcome", rec.Outcome, "error", err)
	}
}
