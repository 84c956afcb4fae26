// Package wiring assembles repositories and services for the server and the admin CLI.
package wiring

import (
	"database/sql"

	"contest_arena/internal/app/service"
	"contest_arena/internal/common/security"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/domain/scoring"
	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/judge"
	"contest_arena/internal/platform/lock"

	"github.com/redis/go-redis/v9"
)

type Services struct {
	Problems    *service.ProblemService
	Contests    *service.ContestService
	Submissions *service.SubmissionService
	Verdicts    *service.VerdictService
	Leaderboard *service.LeaderboardService
	Users       *service.UserService
}

// NewServices builds every service over db. Ledger locks go through rdb when it
// is non-nil and stay in-process otherwise.
func NewServices(cfg *config.Config, db *sql.DB, rdb *redis.Client, gateway service.JudgeGateway) *Services {
	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	contestRepo := repository.NewPgContestRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)
	leaderboardRepo := repository.NewPgLeaderboardRepository(db)
	tx := repository.NewSQLTransactor(db)

	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, cfg.LedgerLockPrefix, cfg.LedgerLockTTL, cfg.LedgerLockWait)
	}
	ledger := scoring.NewLedger(scoring.DefaultRules)

	verdicts := service.NewVerdictService(problemRepo, contestRepo, leaderboardRepo, tx, locker, ledger)
	submissions := service.NewSubmissionService(submissionRepo, problemRepo, verdicts, gateway, judge.DefaultCatalog(),
		service.SubmissionSettings{
			Cooldown:            cfg.SubmissionCooldown,
			SimilarityThreshold: cfg.SimilarityThreshold,
		})

	return &Services{
		Problems:    service.NewProblemService(problemRepo, contestRepo),
		Contests:    service.NewContestService(contestRepo, problemRepo, leaderboardRepo, submissionRepo, userRepo, tx, locker, ledger),
		Submissions: submissions,
		Verdicts:    verdicts,
		Leaderboard: service.NewLeaderboardService(contestRepo, leaderboardRepo, userRepo),
		Users:       service.NewUserService(userRepo, security.GenerateToken),
	}
}
