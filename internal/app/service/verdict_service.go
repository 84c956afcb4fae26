package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/domain/scoring"
	"contest_arena/internal/platform/lock"
	"contest_arena/internal/platform/logger"
)

// VerdictService folds graded submissions into contest leaderboards.
type VerdictService struct {
	problemRepo     repository.ProblemRepository
	contestRepo     repository.ContestRepository
	leaderboardRepo repository.LeaderboardRepository
	tx              repository.Transactor
	locker          lock.Locker
	ledger          *scoring.Ledger
	now             func() time.Time
}

func NewVerdictService(
	probRepo repository.ProblemRepository,
	contestRepo repository.ContestRepository,
	lbRepo repository.LeaderboardRepository,
	tx repository.Transactor,
	locker lock.Locker,
	ledger *scoring.Ledger,
) *VerdictService {
	return &VerdictService{
		problemRepo:     probRepo,
		contestRepo:     contestRepo,
		leaderboardRepo: lbRepo,
		tx:              tx,
		locker:          locker,
		ledger:          ledger,
		now:             time.Now,
	}
}

// ApplyVerdict records v for userID on the owning contest's leaderboard.
// It returns false without error when the verdict is not admissible, and true
// once an admitted verdict has been folded in, even if the entry was already up to date.
func (s *VerdictService) ApplyVerdict(ctx context.Context, userID string, v model.Verdict) (bool, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, v.ProblemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, common.Errorf("verdict for submission %s references missing problem %s: %w",
				v.SubmissionID, v.ProblemID, common.ErrInternalServer)
		}
		return false, common.Errorf("failed to load problem %s: %w", v.ProblemID, err)
	}
	if !problem.IsContestBound() {
		return false, nil
	}

	contest, err := s.contestRepo.FindContestByID(ctx, *problem.ContestID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, common.Errorf("failed to load contest %s: %w", *problem.ContestID, err)
	}

	now := s.now()
	if ok, reason := scoring.Admit(problem, contest, userID, now); !ok {
		logger.Debug().
			Str("submission_id", v.SubmissionID).
			Str("user_id", userID).
			Str("reason", string(reason)).
			Msg("verdict not admitted")
		return false, nil
	}

	release, err := s.locker.Acquire(ctx, contest.ID+":"+userID)
	if err != nil {
		return false, err
	}
	defer release()

	changed := false
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		entry, err := s.leaderboardRepo.GetEntry(ctx, tx, contest.ID, userID)
		created := false
		if errors.Is(err, common.ErrNotFound) {
			entry = s.ledger.NewEntry(contest, userID, now)
			created = true
		} else if err != nil {
			return common.Errorf("failed to load leaderboard entry: %w", err)
		}

		changed, err = s.ledger.Apply(entry, v)
		if err != nil {
			return err
		}

		switch {
		case created:
			if err := s.leaderboardRepo.CreateEntry(ctx, tx, entry); err != nil {
				return common.Errorf("failed to create leaderboard entry: %w", err)
			}
		case changed:
			if err := s.leaderboardRepo.UpdateEntry(ctx, tx, entry); err != nil {
				return common.Errorf("failed to save leaderboard entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		logger.Info().
			Str("contest_id", contest.ID).
			Str("user_id", userID).
			Str("submission_id", v.SubmissionID).
			Str("status", string(v.Status)).
			Msg("leaderboard entry updated")
	}
	return true, nil
}
