package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	slacknotifier "github.com/mauv0809/padel-weekly/internal/notifier/slack"
	"github.com/mauv0809/padel-weekly/internal/views"
	"github.com/slack-go/slack"
)

// SlashRankingSize is the number of players /padel ranking shows.
const SlashRankingSize = 10

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// parseCommandText splits "/padel <action> <group>" text. The group defaults
// to fallback when omitted.
func parseCommandText(text, fallback string) (action, slug string) {
	parts := strings.Fields(strings.ToLower(text))
	if len(parts) == 0 {
		return "", fallback
	}
	action, slug = parts[0], fallback
	if len(parts) > 1 {
		slug = parts[1]
	}
	return action, slug
}

// PadelCommandHandler answers the /padel slash command: "next <group>" shows
// the upcoming session and "ranking <group>" the top players. Requests are
// verified with the Slack signing secret.
func PadelCommandHandler(signingSecret, defaultGroup string, reader views.Reader, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if signingSecret == "" {
			http.Error(w, "slack commands are not configured", http.StatusServiceUnavailable)
			return
		}
		verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
		if err != nil {
			log.Warn("Rejected slack command without valid signature headers", "error", err)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		r.Body = io.NopCloser(io.TeeReader(r.Body, &verifier))
		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		if err := verifier.Ensure(); err != nil {
			log.Warn("Rejected slack command with bad signature", "error", err)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		action, slug := parseCommandText(cmd.Text, defaultGroup)
		log.Info("Received slack command", "command", cmd.Command, "action", action, "group", slug, "user", cmd.UserName)

		ctx := auth.WithIdentity(r.Context(), auth.System())
		var msg slack.Message
		switch {
		case action == "next" && slug != "":
			d, err := reader.Dashboard(ctx, auth.System(), slug)
			if err != nil {
				msg = commandError(slug, err)
				break
			}
			if d.Next == nil {
				msg = slacknotifier.FormatNext(d.Group.Name, nil, nil, loc)
				break
			}
			msg = slacknotifier.FormatNext(d.Group.Name, &d.Next.Occurrence, d.Next.Attendance, loc)
		case action == "ranking" && slug != "":
			g, err := reader.Group(ctx, auth.System(), slug)
			if err != nil {
				msg = commandError(slug, err)
				break
			}
			ranking, err := reader.Ranking(ctx, auth.System(), slug)
			if err != nil {
				msg = commandError(slug, err)
				break
			}
			if len(ranking) > SlashRankingSize {
				ranking = ranking[:SlashRankingSize]
			}
			msg = slacknotifier.FormatRanking(g.Name, ranking)
		default:
			msg = slacknotifier.FormatUsage()
			msg.ResponseType = slack.ResponseTypeEphemeral
		}
		if msg.ResponseType == "" {
			msg.ResponseType = slack.ResponseTypeInChannel
		}
		respondWithSlackMsg(w, msg)
	}
}

func commandError(slug string, err error) slack.Message {
	text := "Something went wrong, try again later."
	if errors.Is(err, apperr.ErrNotFound) {
		text = "No group called *" + slug + "*."
	} else {
		log.Error("Slack command failed", "group", slug, "error", err)
	}
	return slack.NewBlockMessage(slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil))
}
