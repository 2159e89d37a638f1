// Package staleness decides whether a wishlist cell needs a fresh simulation.
package staleness

import (
	"time"

	"github.com/jonathan/wishlist-sync/internal/types"
)

// DefaultMaxAge is the staleness window used when none is configured.
const DefaultMaxAge = 24 * time.Hour

// Latest returns the most recent non-nil timestamp in UTC, or false if there is none.
func Latest(entries []types.WishlistUpdate) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, e := range entries {
		if e.UpdatedAt == nil {
			continue
		}
		ts := e.UpdatedAt.UTC()
		if !found || ts.After(latest) {
			latest = ts
			found = true
		}
	}
	return latest, found
}

// IsUpToDate reports whether now - latest < maxAge. Cells without any timestamp
// are never up to date. The comparison is strict: an entry exactly maxAge old is stale.
func IsUpToDate(entries []types.WishlistUpdate, maxAge time.Duration, now time.Time) bool {
	latest, ok := Latest(entries)
	if !ok {
		return false
	}
	return now.UTC().Sub(latest) < maxAge
}

// Evaluator binds a staleness window and clock.
type Evaluator struct {
	MaxAge time.Duration
	Now    func() time.Time
}

// NewEvaluator returns an Evaluator using the wall clock.
func NewEvaluator(maxAge time.Duration) *Evaluator {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Evaluator{MaxAge: maxAge, Now: time.Now}
}

// IsUpToDate evaluates one cell against the evaluator's window.
func (e *Evaluator) IsUpToDate(entries []types.WishlistUpdate) bool {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return IsUpToDate(entries, e.MaxAge, now())
}
