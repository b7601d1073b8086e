package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/padel-weekly/internal/apperr"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/http/handlers"
)

// DefaultMatchesLimit bounds /matches without a limit parameter.
const DefaultMatchesLimit = 50

func slugParam(r *http.Request) string { return chi.URLParam(r, "slug") }
func idParam(r *http.Request) string   { return chi.URLParam(r, "id") }

func identity(r *http.Request) auth.Identity { return auth.FromContext(r.Context()) }

// intQuery parses an optional positive integer query parameter.
func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Validation("%s must be a non-negative integer", key)
	}
	return v, nil
}

// read adapts a view call into a JSON handler.
func read[T any](fn func(r *http.Request) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		handlers.WriteJSON(w, http.StatusOK, v)
	}
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		d, err := s.Views.Dashboard(r.Context(), identity(r), slugParam(r))
		if err != nil {
			return nil, err
		}
		d.Demo = d.Demo || s.Views.IsDemo(slugParam(r))
		return d, nil
	})
}

func (s *Server) EventsHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		return s.Views.Events(r.Context(), identity(r), slugParam(r))
	})
}

func (s *Server) OccurrenceHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		return s.Views.Occurrence(r.Context(), identity(r), slugParam(r), idParam(r))
	})
}

func (s *Server) MatchesHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		limit, err := intQuery(r, "limit", DefaultMatchesLimit)
		if err != nil {
			return nil, err
		}
		return s.Views.Matches(r.Context(), identity(r), slugParam(r), limit)
	})
}

func (s *Server) MatchHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		return s.Views.Match(r.Context(), identity(r), slugParam(r), idParam(r))
	})
}

func (s *Server) PlayersHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		return s.Views.Players(r.Context(), identity(r), slugParam(r))
	})
}

func (s *Server) PlayerHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		return s.Views.Player(r.Context(), identity(r), slugParam(r), idParam(r))
	})
}

func (s *Server) RankingHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		return s.Views.Ranking(r.Context(), identity(r), slugParam(r))
	})
}

func (s *Server) PairsHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		minMatches, err := intQuery(r, "min", 1)
		if err != nil {
			return nil, err
		}
		return s.Views.Pairs(r.Context(), identity(r), slugParam(r), minMatches)
	})
}

func (s *Server) ChallengesHandler() http.HandlerFunc {
	return read(func(r *http.Request) (any, error) {
		return s.Views.Challenges(r.Context(), identity(r), slugParam(r), strings.TrimSpace(r.URL.Query().Get("player")))
	})
}

// OccurrenceSocketHandler streams attendance summaries of one occurrence.
// Browsers cannot set headers on websocket requests, so a token may also be
// passed as ?token=.
func (s *Server) OccurrenceSocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Events == nil {
			handlers.WriteError(w, r, apperr.NotFound("live updates are not available"))
			return
		}
		id := identity(r)
		if raw := r.URL.Query().Get("token"); raw != "" && !id.Authenticated() {
			parsed, err := s.Tokens.Parse(raw)
			if err != nil {
				handlers.WriteError(w, r, apperr.Unauthenticated())
				return
			}
			id = parsed
		}
		occ, err := s.Events.Occurrence(r.Context(), id, idParam(r))
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		log.Debug("Opening occurrence socket", "occurrence", occ.ID, "user", id)
		s.Hub.Serve(w, r, occ.ID)
	}
}
