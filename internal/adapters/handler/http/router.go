package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
	"github.com/vncsmyrnk/civicstake/internal/core/ports"
)

// Services groups the core ports served over HTTP.
type Services struct {
	Users       ports.UserService
	Ledger      ports.LedgerService
	Bounties    ports.BountyService
	Questions   ports.QuestionService
	Votes       ports.VoteService
	Leaderboard ports.LeaderboardService
	Moderation  ports.ModerationService
}

func NewHandler(svc Services, verifier *TokenVerifier, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	users := NewUserHandler(svc.Users, svc.Ledger, logger)
	questions := NewQuestionHandler(svc.Questions, logger)
	bounties := NewBountyHandler(svc.Bounties, logger)
	votes := NewVoteHandler(svc.Votes, logger)
	leaderboard := NewLeaderboardHandler(svc.Leaderboard, logger)
	moderation := NewModerationHandler(svc.Moderation, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(Identify(verifier, logger))

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireAuth)
			r.Post("/", users.Register)
			r.Get("/me", users.GetMe)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questions.ListQuestions)
			r.Get("/{id}", questions.GetQuestion)
			r.With(RequireAuth).Post("/", questions.CreateQuestion)
			r.With(RequireAuth).Post("/{id}/finalize", questions.Finalize)
		})

		r.Route("/bounties", func(r chi.Router) {
			r.Get("/questions/{id}", bounties.Details)
			r.Group(func(r chi.Router) {
				r.Use(RequireAuth)
				r.Post("/questions/{id}/stake", bounties.Stake)
				r.Get("/wallet", users.Wallet)
				r.Post("/purchase", users.Purchase)
			})
		})

		r.Route("/answers", func(r chi.Router) {
			r.Get("/questions/{id}", questions.GetAnswer)
			r.Get("/{id}/votes", votes.Votes)
			r.Group(func(r chi.Router) {
				r.Use(RequireAuth)
				r.Post("/questions/{id}", questions.SubmitAnswer)
				r.Post("/{id}/vote", votes.Vote)
			})
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", leaderboard.Leaderboard)
			r.Get("/stats/dashboard", leaderboard.Stats)
			r.Get("/{id}", leaderboard.Politician)
		})

		r.Route("/moderation", func(r chi.Router) {
			r.Use(RequireAuth)
			r.Use(RequireRole(domain.RoleModerator))
			r.Post("/questions/{id}/flag", moderation.Flag)
			r.Post("/questions/{id}/refund", moderation.Refund)
		})
	})

	return r
}
