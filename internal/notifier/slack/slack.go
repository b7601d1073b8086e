package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/notifier"
	"github.com/mauv0809/padel-weekly/internal/stats"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	loc       *time.Location
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics, loc)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		loc:       loc,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
	)
	if err != nil {
		s.metrics.IncNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) TeamsAnnounced(ctx context.Context, match *matches.Summary, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatTeams(match), dryRun)
	return err
}

func (s *Notifier) ResultRecorded(ctx context.Context, match *matches.Summary, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatResult(match), dryRun)
	return err
}

func (s *Notifier) WeeklyRanking(ctx context.Context, groupName string, ranking []stats.RankingEntry, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, FormatRanking(groupName, ranking), dryRun)
	return err
}

func text(kind, s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(kind, s, kind == slack.PlainTextType, false)
}

func section(kind, s string) *slack.SectionBlock {
	return slack.NewSectionBlock(text(kind, s), nil, nil)
}

func teamNames(t matches.TeamSummary) string {
	names := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		names = append(names, p.Name)
	}
	return strings.Join(names, " & ")
}

// formatTeams creates the Slack message announcing the teams of a match.
func (s *Notifier) formatTeams(match *matches.Summary) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(text(slack.PlainTextType, "🎾 Teams are set! 🎾")),
		section(slack.PlainTextType, match.PlayedAt.In(s.loc).Format("Monday 02 Jan, 15:04")),
	}
	var lines []string
	for _, t := range match.Teams {
		lines = append(lines, fmt.Sprintf("Team %d: %s", t.Number, teamNames(t)))
	}
	if len(lines) > 0 {
		blocks = append(blocks, section(slack.PlainTextType, strings.Join(lines, "\n")))
	}
	blocks = append(blocks, slack.NewContextBlock("", text(slack.PlainTextType, fmt.Sprintf("Best of %d", match.BestOf))))
	return slack.NewBlockMessage(blocks...)
}

// formatResult creates the Slack message for a finished match with the
// rating changes of every player.
func (s *Notifier) formatResult(match *matches.Summary) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(text(slack.PlainTextType, "🎾 Match finished! 🎾")),
	}

	header := "Result: " + match.Score
	for _, t := range match.Teams {
		if t.Won {
			header = fmt.Sprintf("Result: %s won %s 🏆", teamNames(t), match.Score)
		}
	}
	blocks = append(blocks, section(slack.PlainTextType, header))

	var fields []*slack.TextBlockObject
	for _, t := range match.Teams {
		var lines []string
		for _, p := range t.Players {
			line := fmt.Sprintf("• %s %d", p.Name, p.EloBefore)
			if p.EloAfter != nil {
				line = fmt.Sprintf("• %s %d → %d (%+d)", p.Name, p.EloBefore, *p.EloAfter, p.Delta)
			}
			lines = append(lines, line)
		}
		fields = append(fields, text(slack.PlainTextType, fmt.Sprintf("Team %d\n%s", t.Number, strings.Join(lines, "\n"))))
	}
	if len(fields) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}
	blocks = append(blocks, slack.NewContextBlock("", text(slack.PlainTextType, match.PlayedAt.In(s.loc).Format("Monday 02 Jan, 15:04"))))
	return slack.NewBlockMessage(blocks...)
}

// FormatRanking creates a Slack message to display the group ranking.
func FormatRanking(groupName string, ranking []stats.RankingEntry) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(text(slack.PlainTextType, fmt.Sprintf("🏆 %s ranking 🏆", groupName))),
	}
	if len(ranking) == 0 {
		blocks = append(blocks, section(slack.PlainTextType, "No matches played yet. Go play some!"))
		return slack.NewBlockMessage(blocks...)
	}

	for _, e := range ranking {
		var medal string
		switch e.Position {
		case 1:
			medal = "🥇 "
		case 2:
			medal = "🥈 "
		case 3:
			medal = "🥉 "
		}
		line := fmt.Sprintf("%d. %s*%s*  %d\n> Won %d/%d (%.0f%%) | Games %+d",
			e.Position, medal, e.Name, e.Elo,
			e.MatchesWon, e.MatchesPlayed, e.WinRate*100, e.GamesDiff)
		blocks = append(blocks, section(slack.MarkdownType, line))
	}
	return slack.NewBlockMessage(blocks...)
}

// FormatNext creates the slash command response describing an upcoming
// occurrence and who is coming.
func FormatNext(groupName string, occ *events.Occurrence, summary *attendance.Summary, loc *time.Location) slack.Message {
	if occ == nil {
		return slack.NewBlockMessage(section(slack.MarkdownType, fmt.Sprintf("No upcoming game for *%s*.", groupName)))
	}
	if loc == nil {
		loc = time.UTC
	}
	blocks := []slack.Block{
		slack.NewHeaderBlock(text(slack.PlainTextType, fmt.Sprintf("🎾 Next %s game", groupName))),
		section(slack.PlainTextType, fmt.Sprintf("%s (%s)", occ.StartsAt.In(loc).Format("Monday 02 Jan, 15:04"), occ.Status)),
	}
	if summary != nil {
		names := make([]string, 0, len(summary.Confirmed))
		for _, a := range summary.Confirmed {
			names = append(names, "• "+a.PlayerName)
		}
		body := fmt.Sprintf("Confirmed %d/%d", summary.ConfirmedCount, summary.Capacity)
		if len(names) > 0 {
			body += "\n" + strings.Join(names, "\n")
		}
		blocks = append(blocks, section(slack.PlainTextType, body))
		if summary.IsFull {
			blocks = append(blocks, slack.NewContextBlock("", text(slack.PlainTextType, "Full. New confirmations go to the waitlist.")))
		} else {
			blocks = append(blocks, slack.NewContextBlock("", text(slack.PlainTextType, fmt.Sprintf("%d spots left", summary.SpotsAvailable))))
		}
	}
	if occ.Booking != nil && occ.Booking.Court != "" {
		blocks = append(blocks, slack.NewContextBlock("", text(slack.PlainTextType, "Court: "+occ.Booking.Court)))
	}
	return slack.NewBlockMessage(blocks...)
}

// FormatUsage is the reply for an unknown slash command argument.
func FormatUsage() slack.Message {
	return slack.NewBlockMessage(section(slack.MarkdownType,
		"Usage: `/padel next <group>` or `/padel ranking <group>`"))
}
