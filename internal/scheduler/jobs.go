package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/notifier"
	"github.com/mauv0809/padel-weekly/internal/playtomic"
	"github.com/mauv0809/padel-weekly/internal/stats"
)

const (
	JobGenerateOccurrences = "generate-occurrences"
	JobWeeklyChallenges    = "weekly-challenges"
	JobPlaytomicSync       = "playtomic-sync"
	JobWeeklyRanking       = "weekly-ranking"

	rankingSize = 10
)

type OccurrenceGenerator interface {
	GenerateAll(ctx context.Context, weeksAhead int) (int, error)
}

type ChallengeInitializer interface {
	InitializeAllGroups(ctx context.Context) error
}

type BookingSyncer interface {
	Sync(ctx context.Context, groupID string) (playtomic.SyncResult, error)
}

type RankingSource interface {
	Ranking(ctx context.Context, id auth.Identity, groupID string) ([]stats.RankingEntry, error)
}

type GroupLister interface {
	ListGroups(ctx context.Context) ([]group.Group, error)
}

// Jobs holds the collaborators of the recurring jobs. A nil Bookings skips
// the Playtomic sync; a nil Notifier skips the ranking post.
type Jobs struct {
	Groups      GroupLister
	Occurrences OccurrenceGenerator
	Challenges  ChallengeInitializer
	Bookings    BookingSyncer
	Ranking     RankingSource
	Notifier    notifier.Notifier
	WeeksAhead  int
	DryRun      bool
}

// Register adds every configured job to s.
func (s *Service) Register(j Jobs) error {
	if _, err := s.AddJob(JobGenerateOccurrences, "0 3 * * *", j.GenerateOccurrences); err != nil {
		return err
	}
	if _, err := s.AddJob(JobWeeklyChallenges, "5 0 * * 1", j.WeeklyChallenges); err != nil {
		return err
	}
	if j.Bookings != nil {
		if _, err := s.AddJob(JobPlaytomicSync, "*/30 * * * *", j.PlaytomicSync); err != nil {
			return err
		}
	}
	if j.Notifier != nil {
		if _, err := s.AddJob(JobWeeklyRanking, "0 9 * * 1", j.WeeklyRanking); err != nil {
			return err
		}
	}
	return nil
}

func (j Jobs) GenerateOccurrences(ctx context.Context) error {
	n, err := j.Occurrences.GenerateAll(ctx, j.WeeksAhead)
	if err != nil {
		return err
	}
	log.Info("Generated occurrences", "created", n, "weeks_ahead", j.WeeksAhead)
	return nil
}

func (j Jobs) WeeklyChallenges(ctx context.Context) error {
	return j.Challenges.InitializeAllGroups(ctx)
}

// PlaytomicSync syncs every group and keeps going past a failing one.
func (j Jobs) PlaytomicSync(ctx context.Context) error {
	groups, err := j.Groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, g := range groups {
		res, err := j.Bookings.Sync(ctx, g.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("group %s: %w", g.Slug, err))
			continue
		}
		if res.Linked > 0 {
			log.Info("Playtomic bookings linked", "group", g.Slug, "linked", res.Linked)
		}
	}
	return errors.Join(errs...)
}

// WeeklyRanking posts the top of every group's ranking.
func (j Jobs) WeeklyRanking(ctx context.Context) error {
	groups, err := j.Groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, g := range groups {
		ranking, err := j.Ranking.Ranking(ctx, auth.System(), g.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("group %s: %w", g.Slug, err))
			continue
		}
		if len(ranking) == 0 {
			continue
		}
		if len(ranking) > rankingSize {
			ranking = ranking[:rankingSize]
		}
		if err := j.Notifier.WeeklyRanking(ctx, g.Name, ranking, j.DryRun); err != nil {
			errs = append(errs, fmt.Errorf("group %s: %w", g.Slug, err))
		}
	}
	return errors.Join(errs...)
}
