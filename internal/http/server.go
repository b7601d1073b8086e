package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/http/handlers"
)

func NewServer(deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokens(deps.Cfg.JWTSecret)
	}
	server := &Server{
		Deps:     deps,
		Router:   chi.NewRouter(),
		validate: handlers.NewValidator(),
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.Cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(paramsMiddleware(s.Cfg.DryRun))

	r.Get("/health", handlers.HealthCheckHandler(s.DB))
	if s.MetricsHandler != nil {
		r.Handle("/metrics", s.MetricsHandler)
	}

	// Machine-to-machine endpoints authenticate on their own.
	if s.Runner != nil {
		r.Post("/pubsub/side-effects", handlers.SideEffectPushHandler(s.Runner))
	}
	if s.Inngest != nil {
		r.Handle("/api/inngest", s.Inngest)
	}
	r.Post("/slack/commands", handlers.PadelCommandHandler(s.Cfg.Slack.SigningSecret, s.Views.DemoSlug, s.Views, s.Cfg.Location()))

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.Tokens))

		if s.Hub != nil {
			r.Get("/ws/occurrences/{id}", s.OccurrenceSocketHandler())
		}

		r.Route("/api/g/{slug}", func(r chi.Router) {
			r.Get("/", s.DashboardHandler())
			r.Get("/events", s.EventsHandler())
			r.Post("/events", s.CreateEventHandler())
			r.Post("/events/{id}/generate", s.GenerateOccurrencesHandler())

			r.Get("/occurrences/{id}", s.OccurrenceHandler())
			r.Put("/occurrences/{id}/attendance", s.SetAttendanceHandler())
			r.Post("/occurrences/{id}/lock", s.TransitionHandler(transitionLock))
			r.Post("/occurrences/{id}/cancel", s.TransitionHandler(transitionCancel))
			r.Post("/occurrences/{id}/complete", s.TransitionHandler(transitionComplete))
			r.Get("/occurrences/{id}/balance", s.BalanceHandler())
			r.Post("/occurrences/{id}/balance/move", s.MoveHandler())
			r.Post("/occurrences/{id}/match", s.CreateMatchHandler())
			r.Post("/occurrences/{id}/link-match", s.LinkMatchHandler())

			r.Get("/matches", s.MatchesHandler())
			r.Get("/matches/{id}", s.MatchHandler())
			r.Post("/matches/{id}/result", s.RecordResultHandler())

			r.Get("/players", s.PlayersHandler())
			r.Post("/players", s.AddPlayerHandler())
			r.Get("/players/{id}", s.PlayerHandler())
			r.Patch("/players/{id}", s.UpdatePlayerHandler())

			r.Get("/ranking", s.RankingHandler())
			r.Get("/pairs", s.PairsHandler())
			r.Get("/challenges", s.ChallengesHandler())
		})

		r.Post("/api/groups/{id}/skip-week", s.SkipWeekHandler())
		r.Post("/api/admin/playtomic/sync", s.PlaytomicSyncHandler())
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
