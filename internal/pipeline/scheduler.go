package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/wishlist-sync/internal/config"
	"github.com/jonathan/wishlist-sync/internal/types"
)

// SchedulerOptions selects characters and bounds fan-out.
type SchedulerOptions struct {
	Mode            config.RunMode
	SingleCharacter string
	ExcludedRoles   []string
	// MaxConcurrency bounds concurrent characters. Zero runs all at once.
	MaxConcurrency int
}

// RunReport summarises a whole run.
type RunReport struct {
	Region     string
	Characters []*CharacterReport
	Excluded   []types.Character
	Duration   time.Duration
}

// Total returns how many records across all characters ended with outcome.
func (r *RunReport) Total(outcome types.CellOutcome) int {
	n := 0
	for _, c := range r.Characters {
		n += c.Count(outcome)
	}
	return n
}

// Interrupted reports whether any character stopped early.
func (r *RunReport) Interrupted() bool {
	for _, c := range r.Characters {
		if c.Interrupted {
			return true
		}
	}
	return false
}

// Scheduler runs one CharacterPipeline per eligible character and joins them.
type Scheduler struct {
	pipeline *CharacterPipeline
	opts     SchedulerOptions
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(pipeline *CharacterPipeline, opts SchedulerOptions, logger *slog.Logger) *Scheduler {
	if opts.Mode == "" {
		opts.Mode = config.RunModeAll
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{pipeline: pipeline, opts: opts, logger: logger}
}

// SelectCharacters applies the role filter and run mode. Single mode picks the
// named character, or the first eligible one when no name is given.
func SelectCharacters(characters []types.Character, opts SchedulerOptions) (selected, excluded []types.Character, err error) {
	for _, c := range characters {
		if hasRole(opts.ExcludedRoles, c.Role) {
			excluded = append(excluded, c)
			continue
		}
		selected = append(selected, c)
	}
	if len(selected) == 0 {
		return nil, excluded, abort(ReasonNoCharacters, nil)
	}
	if opts.Mode != config.RunModeSingle {
		return selected, excluded, nil
	}

	if opts.SingleCharacter == "" {
		return selected[:1], excluded, nil
	}
	for _, c := range selected {
		if strings.EqualFold(c.Name, opts.SingleCharacter) || strings.EqualFold(c.FullName(), opts.SingleCharacter) {
			return []types.Character{c}, excluded, nil
		}
	}
	return nil, excluded, abort(ReasonNoCharacters,
		fmt.Errorf("character %q is not an eligible roster member", opts.SingleCharacter))
}

// Run processes the plan's characters concurrently. Each character runs its
// cells sequentially; characters share only the read-only plan.
func (s *Scheduler) Run(ctx context.Context, plan *Plan) (*RunReport, error) {
	started := time.Now()
	selected, excluded, err := SelectCharacters(plan.Characters, s.opts)
	if err != nil {
		return nil, err
	}
	for _, c := range excluded {
		s.logger.Debug("character excluded by role", "character", c.FullName(), "role", c.Role)
	}
	s.logger.Info("starting characters",
		"region", plan.Region,
		"characters", len(selected),
		"excluded", len(excluded),
		"mode", s.opts.Mode)

	reports := make([]*CharacterReport, len(selected))
	var g errgroup.Group
	if s.opts.MaxConcurrency > 0 {
		g.SetLimit(s.opts.MaxConcurrency)
	}
	for i, c := range selected {
		g.Go(func() error {
			reports[i] = s.pipeline.Run(ctx, plan, c)
			return nil
		})
	}
	_ = g.Wait()

	return &RunReport{
		Region:     plan.Region,
		Characters: reports,
		Excluded:   excluded,
		Duration:   time.Since(started),
	}, nil
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
