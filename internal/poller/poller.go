// Package poller waits for Raidbots jobs to reach a terminal state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// DefaultInterval is the pause between status queries.
const DefaultInterval = 30 * time.Second

// ErrWaitExceeded is returned when the configured ceiling elapses first.
var ErrWaitExceeded = errors.New("poller: job did not finish within the wait ceiling")

// StatusQuerier is the job status collaborator. A definitive "job absent" answer
// must be reported as a SimJob in the not_found state, not as an error.
type StatusQuerier interface {
	QueryJobStatus(ctx context.Context, jobID string) (*types.SimJob, error)
}

// Options configures the poller.
type Options struct {
	// Interval between queries. The first query is issued immediately.
	Interval time.Duration
	// MaxWait caps the total time spent on one job. Zero means unbounded, which
	// is the historical behaviour: a stuck remote job stalls its caller forever.
	MaxWait time.Duration
}

// Poller drives the queued -> running -> complete/not_found state machine.
type Poller struct {
	querier  StatusQuerier
	interval time.Duration
	maxWait  time.Duration
	logger   *slog.Logger
}

// New creates a Poller.
func New(querier StatusQuerier, opts Options, logger *slog.Logger) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxWait := opts.MaxWait
	if maxWait < 0 {
		maxWait = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{querier: querier, interval: interval, maxWait: maxWait, logger: logger}
}

// Wait queries the job until it is complete or no longer known to Raidbots, and
// returns the final snapshot. Query errors are logged and retried after the
// interval; they never end the wait. Wait only fails on context cancellation or
// when MaxWait is set and elapses.
func (p *Poller) Wait(ctx context.Context, jobID string, log *slog.Logger) (*types.SimJob, error) {
	if log == nil {
		log = p.logger
	}
	log = log.With("job_id", jobID)

	var deadline <-chan time.Time
	if p.maxWait > 0 {
		timer := time.NewTimer(p.maxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	state := types.JobQueued
	for attempt := 1; ; attempt++ {
		job, err := p.querier.QueryJobStatus(ctx, jobID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("job status query failed, retrying", "attempt", attempt, "state", state, "error", err)
		case job == nil:
			log.Warn("job status query returned no snapshot, retrying", "attempt", attempt, "state", state)
		case job.State.IsTerminal():
			log.Info("sim completed", "state", job.State, "attempts", attempt)
			return job, nil
		default:
			if job.State != types.JobUnknown {
				state = job.State
			}
			log.Info("sim in progress", progressAttrs(state, job)...)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("%w (job %s, %s)", ErrWaitExceeded, jobID, p.maxWait)
		case <-time.After(p.interval):
		}
	}
}

func progressAttrs(state types.JobState, job *types.SimJob) []any {
	attrs := []any{"state", state}
	if job.Progress != nil {
		attrs = append(attrs, "progress", *job.Progress)
	}
	if job.QueuePosition != nil && job.QueueTotal != nil {
		attrs = append(attrs, "queue", fmt.Sprintf("%d/%d", *job.QueuePosition, *job.QueueTotal))
	}
	return attrs
}
