package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/app"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/config"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/spf13/cobra"
)

var playerNames = []string{"Ana", "Bea", "Carla", "Dani", "Edu", "Fer", "Gala", "Hugo"}

type seedOptions struct {
	slug  string
	owner string
	weeks int
	seed  int64
}

var opts seedOptions

var rootCmd = &cobra.Command{
	Use:   "padel-seeder",
	Short: "Fill a database with a group and weeks of played matches",
	Long: `Creates a group with eight players and a Thursday event, then plays
the given number of past weeks: attendance, balanced teams, results and
everything that follows a result.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return seed(cmd.Context(), config.Load(), opts, app.Options{InlineSideEffects: true})
	},
}

func init() {
	rootCmd.Flags().StringVar(&opts.slug, "slug", "thursday", "Slug of the group to create")
	rootCmd.Flags().StringVar(&opts.owner, "owner", "", "User id added as the group owner")
	rootCmd.Flags().IntVar(&opts.weeks, "weeks", 12, "Past weeks to fill with matches")
	rootCmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "Random seed")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %s\n", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg config.Config, o seedOptions, appOpts app.Options) error {
	if o.weeks < 1 {
		o.weeks = 1
	}
	log.Info("Starting database seeder...")
	if cfg.DemoMode() {
		return fmt.Errorf("set DB_PATH or TURSO_PRIMARY_URL to seed a database")
	}
	// Side effects run inline so stats and badges are ready when we exit.
	cfg.Scheduler.Enabled = false
	appOpts.InlineSideEffects = true
	ctx = tasks.WithDryRun(ctx, true)

	a, err := app.Build(ctx, cfg, appOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close()

	s := &seeder{app: a, rnd: rand.New(rand.NewSource(o.seed)), loc: cfg.Location()}
	startTime := time.Now()
	if err := s.run(ctx, o.slug, o.owner, o.weeks); err != nil {
		return err
	}
	log.Info("Successfully seeded group", "slug", o.slug, "duration", time.Since(startTime))
	return nil
}

type seeder struct {
	app *app.App
	rnd *rand.Rand
	loc *time.Location
}

func (s *seeder) run(ctx context.Context, slug, owner string, weeks int) error {
	id := auth.System()
	store := s.app.Groups.Store()
	g, err := store.CreateGroup(ctx, "Padel "+slug, slug)
	if err != nil {
		return err
	}
	if owner != "" {
		if err := store.AddMember(ctx, g.ID, owner, group.RoleOwner); err != nil {
			return err
		}
	}

	var players []string
	for i, name := range playerNames {
		status := group.PlayerUsual
		if i >= 6 {
			status = group.PlayerInvite
		}
		p, err := s.app.Groups.AddPlayer(ctx, id, g.ID, group.NewPlayer{Name: name, Status: status})
		if err != nil {
			return err
		}
		players = append(players, p.ID)
	}
	log.Info("Created players", "count", len(players))

	ev, err := s.app.Events.CreateWeeklyEvent(ctx, id, g.ID, events.NewWeeklyEvent{
		Name:      "Thursday padel",
		Weekday:   int(time.Thursday),
		StartTime: "20:00",
		Capacity:  4,
	})
	if err != nil {
		return err
	}

	// Past occurrences are inserted directly; the generator only looks ahead.
	now := time.Now().In(s.loc)
	var past []time.Time
	for w := weeks; w >= 1; w-- {
		day := now.AddDate(0, 0, -7*w)
		for day.Weekday() != time.Thursday {
			day = day.AddDate(0, 0, 1)
		}
		past = append(past, time.Date(day.Year(), day.Month(), day.Day(), 20, 0, 0, 0, s.loc))
	}
	if _, err := s.app.Events.Store().InsertOccurrences(ctx, ev, past); err != nil {
		return err
	}
	if _, err := s.app.Events.GenerateOccurrences(ctx, id, ev.ID, s.app.Cfg.WeeksAhead); err != nil {
		return err
	}

	occs, err := s.app.Events.Store().ListOccurrences(ctx, g.ID, past[0].Add(-time.Hour), now)
	if err != nil {
		return err
	}
	played := 0
	for _, occ := range occs {
		if err := s.playWeek(ctx, id, occ, players); err != nil {
			return err
		}
		played++
	}
	log.Info("Seeded weeks", "played", played)
	return nil
}

func (s *seeder) playWeek(ctx context.Context, id auth.Identity, occ events.Occurrence, players []string) error {
	order := s.rnd.Perm(len(players))
	for i, idx := range order {
		status := attendance.StatusDeclined
		if i < 4 {
			status = attendance.StatusConfirmed
		}
		if _, err := s.app.Attendance.SetAttendance(ctx, id, occ.ID, players[idx], status, attendance.SourceAdmin); err != nil {
			return err
		}
	}
	proposal, err := s.app.Teams.BalanceForOccurrence(ctx, id, occ.ID)
	if err != nil {
		return err
	}
	a, b := proposal.IDs()
	created, err := s.app.Matches.CreateFromOccurrence(ctx, id, occ.ID, matches.CreateInput{
		Split: matches.Split{TeamA: a, TeamB: b},
	})
	if err != nil {
		return err
	}
	if _, err := s.app.Matches.RecordResult(ctx, id, created.Match.ID, s.randomSets()); err != nil {
		return err
	}
	_, err = s.app.Events.MarkCompleted(ctx, id, occ.ID)
	return err
}

// randomSets plays a best-of-three where the first team to two sets wins.
func (s *seeder) randomSets() [][2]int {
	var sets [][2]int
	won := [2]int{}
	for won[0] < 2 && won[1] < 2 {
		loser := s.rnd.Intn(5)
		set := [2]int{6, loser}
		if s.rnd.Intn(2) == 1 {
			set = [2]int{loser, 6}
		}
		if set[0] > set[1] {
			won[0]++
		} else {
			won[1]++
		}
		sets = append(sets, set)
	}
	return sets
}
