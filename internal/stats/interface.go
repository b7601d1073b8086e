package stats

import "context"

// Store keeps the materialized player and pair statistics.
type Store interface {
	// Refresh rebuilds player_stats and pair_stats for the group from its
	// decided matches.
	Refresh(ctx context.Context, groupID string) error
	PlayerStats(ctx context.Context, groupID string) (map[string]PlayerStats, error)
	Player(ctx context.Context, playerID string) (PlayerStats, error)
	Pairs(ctx context.Context, groupID string, minMatches int) ([]PairStats, error)
}
