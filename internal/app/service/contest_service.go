package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/domain/scoring"
	"contest_arena/internal/platform/lock"
	"contest_arena/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ContestService struct {
	contestRepo     repository.ContestRepository
	problemRepo     repository.ProblemRepository
	leaderboardRepo repository.LeaderboardRepository
	submissionRepo  repository.SubmissionRepository
	userRepo        repository.UserRepository
	tx              repository.Transactor
	locker          lock.Locker
	ledger          *scoring.Ledger
	now             func() time.Time
}

func NewContestService(
	contestRepo repository.ContestRepository,
	problemRepo repository.ProblemRepository,
	lbRepo repository.LeaderboardRepository,
	subRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
	locker lock.Locker,
	ledger *scoring.Ledger,
) *ContestService {
	return &ContestService{
		contestRepo:     contestRepo,
		problemRepo:     problemRepo,
		leaderboardRepo: lbRepo,
		submissionRepo:  subRepo,
		userRepo:        userRepo,
		tx:              tx,
		locker:          locker,
		ledger:          ledger,
		now:             time.Now,
	}
}

type CreateContestRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	EasyProblemID   string    `json:"easy_problem_id"`
	MediumProblemID string    `json:"medium_problem_id"`
	HardProblemID   string    `json:"hard_problem_id"`
}

// CreateContest creates the contest and binds its three problems to it in one transaction.
// Binding is permanent.
func (s *ContestService) CreateContest(ctx context.Context, userID string, req CreateContestRequest) (*model.Contest, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, common.Errorf("title is required: %w", common.ErrBadRequest)
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() || !req.StartTime.Before(req.EndTime) {
		return nil, common.Errorf("start_time must be before end_time: %w", common.ErrValidation)
	}

	ids := [3]string{req.EasyProblemID, req.MediumProblemID, req.HardProblemID}
	for i, id := range ids {
		if id == "" {
			return nil, common.Errorf("all three problem ids are required: %w", common.ErrBadRequest)
		}
		for _, other := range ids[:i] {
			if other == id {
				return nil, common.Errorf("problem %s is used twice: %w", id, common.ErrValidation)
			}
		}
	}

	for tier, id := range ids {
		p, err := s.problemRepo.FindProblemByID(ctx, id)
		if err != nil {
			return nil, common.Errorf("problem %s: %w", id, err)
		}
		if p.Difficulty.Tier() != tier {
			return nil, common.Errorf("problem %s has difficulty %s, not the tier it was given for: %w",
				id, p.Difficulty, common.ErrValidation)
		}
		if p.IsContestBound() {
			return nil, common.Errorf("problem %s already belongs to a contest: %w", id, common.ErrConflict)
		}
	}

	contest := &model.Contest{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		ProblemIDs:  ids,
		CreatedByID: &userID,
	}
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.contestRepo.CreateContest(ctx, tx, contest); err != nil {
			return common.Errorf("failed to create contest: %w", err)
		}
		for _, id := range ids {
			if err := s.problemRepo.BindToContest(ctx, tx, id, contest.ID); err != nil {
				return common.Errorf("failed to bind problem: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("contest_id", contest.ID).Str("slug", contest.Slug).Msg("contest created")
	return contest, nil
}

type ContestView struct {
	*model.Contest
	Phase model.ContestPhase `json:"phase"`
}

func (s *ContestService) GetContest(ctx context.Context, contestID string) (*ContestView, error) {
	c, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return nil, common.Errorf("contest not found: %w", err)
	}
	return &ContestView{Contest: c, Phase: c.Phase(s.now())}, nil
}

func (s *ContestService) ListContests(ctx context.Context) ([]ContestView, error) {
	contests, err := s.contestRepo.ListContests(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list contests: %w", err)
	}
	now := s.now()
	views := make([]ContestView, 0, len(contests))
	for i := range contests {
		views = append(views, ContestView{Contest: &contests[i], Phase: contests[i].Phase(now)})
	}
	return views, nil
}

// Register adds userID to the contest. It reports false when the user was already registered.
func (s *ContestService) Register(ctx context.Context, contestID, userID string) (bool, error) {
	if _, err := s.contestRepo.FindContestByID(ctx, contestID); err != nil {
		return false, common.Errorf("contest not found: %w", err)
	}
	added, err := s.contestRepo.AddParticipant(ctx, contestID, userID)
	if err != nil {
		return false, common.Errorf("failed to register: %w", err)
	}
	if added {
		logger.Info().Str("contest_id", contestID).Str("user_id", userID).Msg("participant registered")
	}
	return added, nil
}

func (s *ContestService) Leaderboard(ctx context.Context, contestID string) ([]model.ContestStandingRow, error) {
	if _, err := s.contestRepo.FindContestByID(ctx, contestID); err != nil {
		return nil, common.Errorf("contest not found: %w", err)
	}
	entries, err := s.leaderboardRepo.ListEntries(ctx, contestID)
	if err != nil {
		return nil, common.Errorf("failed to load leaderboard: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, common.Errorf("failed to load participants: %w", err)
	}

	rows := make([]model.ContestStandingRow, 0, len(entries))
	for i, e := range entries {
		row := model.ContestStandingRow{
			Rank:           i + 1,
			UserID:         e.UserID,
			Score:          e.Score,
			ProblemsSolved: e.ProblemsSolved(),
			Problems:       e.Slots,
		}
		if u, ok := users[e.UserID]; ok {
			row.Username = u.Username
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Results summarizes every participant's submissions to the contest problems made while the contest ran.
func (s *ContestService) Results(ctx context.Context, contestID string) ([]model.ParticipantResult, error) {
	c, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return nil, common.Errorf("contest not found: %w", err)
	}
	results, err := s.submissionRepo.ContestResults(ctx, c.ID, c.ProblemIDs[:], c.StartTime, c.EndTime)
	if err != nil {
		return nil, common.Errorf("failed to compute contest results: %w", err)
	}
	return results, nil
}

// Rescore recomputes every stored score from slot state and returns how many entries changed.
func (s *ContestService) Rescore(ctx context.Context, contestID string) (int, error) {
	if _, err := s.contestRepo.FindContestByID(ctx, contestID); err != nil {
		return 0, common.Errorf("contest not found: %w", err)
	}
	entries, err := s.leaderboardRepo.ListEntries(ctx, contestID)
	if err != nil {
		return 0, common.Errorf("failed to load leaderboard: %w", err)
	}

	updated := 0
	for _, e := range entries {
		changed, err := s.rescoreEntry(ctx, contestID, e.UserID)
		if err != nil {
			return updated, err
		}
		if changed {
			updated++
		}
	}
	logger.Info().Str("contest_id", contestID).Int("entries", len(entries)).Int("updated", updated).Msg("contest rescored")
	return updated, nil
}

func (s *ContestService) rescoreEntry(ctx context.Context, contestID, userID string) (bool, error) {
	release, err := s.locker.Acquire(ctx, contestID+":"+userID)
	if err != nil {
		return false, err
	}
	defer release()

	changed := false
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		entry, err := s.leaderboardRepo.GetEntry(ctx, tx, contestID, userID)
		if err != nil {
			return common.Errorf("failed to load leaderboard entry for %s: %w", userID, err)
		}
		if !s.ledger.Rescore(entry) {
			return nil
		}
		changed = true
		if err := s.leaderboardRepo.UpdateEntry(ctx, tx, entry); err != nil {
			return common.Errorf("failed to save leaderboard entry for %s: %w", userID, err)
		}
		return nil
	})
	return changed, err
}
