// Package pipeline orchestrates wishlist generation: it resolves run metadata,
// walks each character's raid/difficulty cells and fans characters out concurrently.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/jonathan/wishlist-sync/internal/settings"
	"github.com/jonathan/wishlist-sync/internal/types"
	"github.com/jonathan/wishlist-sync/internal/wowaudit"
)

// Roster is the WoWAudit metadata collaborator.
type Roster interface {
	FetchTeamInfo(ctx context.Context) (*wowaudit.TeamInfo, error)
	FetchCurrentRaidInstance(ctx context.Context) (*types.RaidInstance, error)
	FetchCharacters(ctx context.Context) ([]types.Character, error)
	FetchWishlists(ctx context.Context) (*wowaudit.Wishlists, error)
}

// Plan is the read-only input shared by every character pipeline in a run.
type Plan struct {
	Region       string
	Raids        []types.RaidInstance
	Difficulties []types.Difficulty
	Matrix       map[types.Difficulty][]types.SimSettings
	History      types.UpdateHistory
	CurrentRaid  types.RaidInstance
	Characters   []types.Character
}

// Prepare resolves everything a run needs before character work starts. Any
// missing piece yields an *AbortError.
func Prepare(ctx context.Context, roster Roster, configs []types.SimulationConfig, logger *slog.Logger) (*Plan, error) {
	if logger == nil {
		logger = slog.Default()
	}

	team, err := roster.FetchTeamInfo(ctx)
	if err != nil {
		return nil, abort(ReasonNoRegion, err)
	}
	region, ok := wowaudit.Region(team.URL)
	if !ok {
		return nil, abort(ReasonNoRegion, nil)
	}

	wishlists, err := roster.FetchWishlists(ctx)
	if err != nil {
		return nil, abort(ReasonNoWishlists, err)
	}
	if wishlists == nil || len(wishlists.Characters) == 0 {
		return nil, abort(ReasonNoWishlists, nil)
	}

	raids := wishlists.Raids()
	if len(raids) == 0 {
		return nil, abort(ReasonNoRaids, nil)
	}

	difficulties := wishlists.Difficulties()
	if len(difficulties) == 0 {
		return nil, abort(ReasonNoDifficulties, nil)
	}

	history := wishlists.History()

	current, err := roster.FetchCurrentRaidInstance(ctx)
	if err != nil {
		return nil, abort(ReasonNoCurrentRaid, err)
	}
	if current == nil {
		return nil, abort(ReasonNoCurrentRaid, nil)
	}
	for i := range raids {
		raids[i].IsCurrentTier = raids[i].ID == current.ID
	}

	logger.Info("run metadata resolved",
		"region", region,
		"raids", len(raids),
		"difficulties", len(difficulties),
		"current_raid", current.Name)

	characters, err := roster.FetchCharacters(ctx)
	if err != nil {
		return nil, abort(ReasonNoCharacters, err)
	}
	if len(characters) == 0 {
		return nil, abort(ReasonNoCharacters, nil)
	}

	return &Plan{
		Region:       region,
		Raids:        raids,
		Difficulties: difficulties,
		Matrix:       settings.Expand(configs, difficulties),
		History:      history,
		CurrentRaid:  *current,
		Characters:   characters,
	}, nil
}
