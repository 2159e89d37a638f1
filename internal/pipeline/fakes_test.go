package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/wishlist-sync/internal/raidbots"
	"github.com/jonathan/wishlist-sync/internal/types"
	"github.com/jonathan/wishlist-sync/internal/wowaudit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLauncher hands out sequential job IDs and records every request.
type fakeLauncher struct {
	mu       sync.Mutex
	requests []raidbots.SimRequest
	active   int
	maxSeen  int
	hold     time.Duration

	// fail decides whether a request fails; a nil error means "no job id".
	fail func(req raidbots.SimRequest) (bool, error)
}

func (f *fakeLauncher) Start(_ context.Context, req raidbots.SimRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()

	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.fail != nil {
		if failed, err := f.fail(req); failed {
			return "", err
		}
	}
	return fmt.Sprintf("job-%d", n), nil
}

func (f *fakeLauncher) Requests() []raidbots.SimRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]raidbots.SimRequest(nil), f.requests...)
}

// fakeWaiter completes immediately unless the job is listed in failJobs.
type fakeWaiter struct {
	mu       sync.Mutex
	waited   []string
	failJobs map[string]error
}

func (f *fakeWaiter) Wait(_ context.Context, jobID string, _ *slog.Logger) (*types.SimJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = append(f.waited, jobID)
	if err, ok := f.failJobs[jobID]; ok {
		return nil, err
	}
	return &types.SimJob{ID: jobID, State: types.JobComplete}, nil
}

type upload struct {
	CharacterID int
	JobID       string
}

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []upload
	failJobs map[string]bool
}

func (f *fakeUploader) SubmitWishlist(_ context.Context, character types.Character, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{CharacterID: character.ID, JobID: jobID})
	if f.failJobs[jobID] {
		return errors.New("wowaudit unavailable")
	}
	return nil
}

func (f *fakeUploader) Uploads() []upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upload(nil), f.uploads...)
}

type memoryLedger struct {
	mu      sync.Mutex
	records []types.CellRecord
	err     error
}

func (l *memoryLedger) RecordCell(_ context.Context, rec types.CellRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return l.err
}

// fakeRoster serves canned metadata.
type fakeRoster struct {
	team       *wowaudit.TeamInfo
	teamErr    error
	current    *types.RaidInstance
	currentErr error
	characters []types.Character
	charErr    error
	wishlists  *wowaudit.Wishlists
	wishErr    error
}

func (f *fakeRoster) FetchTeamInfo(context.Context) (*wowaudit.TeamInfo, error) {
	return f.team, f.teamErr
}

func (f *fakeRoster) FetchCurrentRaidInstance(context.Context) (*types.RaidInstance, error) {
	return f.current, f.currentErr
}

func (f *fakeRoster) FetchCharacters(context.Context) ([]types.Character, error) {
	return f.characters, f.charErr
}

func (f *fakeRoster) FetchWishlists(context.Context) (*wowaudit.Wishlists, error) {
	return f.wishlists, f.wishErr
}
