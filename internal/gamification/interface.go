package gamification

import (
	"context"
	"time"
)

// Store persists challenges, progress, badges and skipped weeks, and reads
// the match history they are computed from.
type Store interface {
	// EnsureChallenges inserts the definitions for the week, ignoring kinds
	// already present, then returns the week's challenges.
	EnsureChallenges(ctx context.Context, groupID string, weekStart time.Time, defs []ChallengeDef) ([]Challenge, error)
	Challenges(ctx context.Context, groupID string, weekStart time.Time) ([]Challenge, error)
	// EnsureProgress inserts a zero row per challenge and player, ignoring
	// existing rows, and returns how many were created.
	EnsureProgress(ctx context.Context, challengeIDs, playerIDs []string) (int, error)
	// SetProgress upserts progress. A completion time, once stored, is kept.
	SetProgress(ctx context.Context, p Progress) error
	Progress(ctx context.Context, challengeIDs []string) ([]Progress, error)

	// PlayerMatches returns the player's matches in [from, to), oldest
	// first. Zero bounds are open.
	PlayerMatches(ctx context.Context, groupID, playerID string, from, to time.Time) ([]PlayedMatch, error)
	ConfirmedCount(ctx context.Context, playerID string, from, to time.Time) (int, error)

	// Award grants a badge once and reports whether it was new.
	Award(ctx context.Context, groupID, playerID, code string) (bool, error)
	PlayerBadges(ctx context.Context, playerID string) ([]Badge, error)

	SkipWeek(ctx context.Context, groupID string, weekStart time.Time, by string) (bool, error)
	SkippedWeeks(ctx context.Context, groupID string) (map[int64]bool, error)
}
