package api

import (
	"net/http"
	"time"

	"contest_arena/internal/api/handler"
	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/service"
	"contest_arena/internal/common"
	"contest_arena/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AllowedOrigins []string
	// Limiter throttles every /api/v1 request per client address; nil disables it.
	Limiter *middleware.IPRateLimiter
}

func NewRouter(
	opts RouterOptions,
	problemService *service.ProblemService,
	contestService *service.ContestService,
	submissionService *service.SubmissionService,
	leaderboardService *service.LeaderboardService,
	userService *service.UserService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Verifies a bearer token when present; Authenticator decides whether one is required.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		if opts.Limiter != nil {
			v1.Use(opts.Limiter.Handler)
		}

		v1.Route("/problems", handler.NewProblemHandler(problemService).RegisterRoutes)
		v1.Route("/contests", handler.NewContestHandler(contestService).RegisterRoutes)
		v1.Route("/submissions", handler.NewSubmissionHandler(submissionService).RegisterRoutes)
		v1.Route("/leaderboard", handler.NewLeaderboardHandler(leaderboardService).RegisterRoutes)
		v1.Route("/users", handler.NewUserHandler(userService).RegisterRoutes)
	})

	return r
}
