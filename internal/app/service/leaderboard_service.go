package service

import (
	"context"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/domain/scoring"
)

// LeaderboardService serves the cross-contest ranking. It is folded fresh on every read.
type LeaderboardService struct {
	contestRepo     repository.ContestRepository
	leaderboardRepo repository.LeaderboardRepository
	userRepo        repository.UserRepository
	now             func() time.Time
}

func NewLeaderboardService(
	contestRepo repository.ContestRepository,
	lbRepo repository.LeaderboardRepository,
	userRepo repository.UserRepository,
) *LeaderboardService {
	return &LeaderboardService{
		contestRepo:     contestRepo,
		leaderboardRepo: lbRepo,
		userRepo:        userRepo,
		now:             time.Now,
	}
}

func (s *LeaderboardService) Global(ctx context.Context) ([]model.GlobalLeaderboardEntry, error) {
	now := s.now()
	contests, err := s.contestRepo.ListEndedBefore(ctx, now)
	if err != nil {
		return nil, common.Errorf("failed to list ended contests: %w", err)
	}

	ids := make([]string, 0, len(contests))
	for _, c := range contests {
		ids = append(ids, c.ID)
	}
	byContest, err := s.leaderboardRepo.ListEntriesForContests(ctx, ids)
	if err != nil {
		return nil, common.Errorf("failed to load contest leaderboards: %w", err)
	}

	standings := make([]scoring.ContestStanding, 0, len(contests))
	for i := range contests {
		standings = append(standings, scoring.ContestStanding{
			Contest: &contests[i],
			Entries: byContest[contests[i].ID],
		})
	}
	ranked := scoring.AggregateGlobal(standings, now)

	userIDs := make([]string, 0, len(ranked))
	for _, r := range ranked {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, common.Errorf("failed to load user profiles: %w", err)
	}

	out := make([]model.GlobalLeaderboardEntry, 0, len(ranked))
	for i, r := range ranked {
		entry := model.GlobalLeaderboardEntry{
			Rank:           i + 1,
			UserID:         r.UserID,
			Score:          r.Score,
			ProblemsSolved: r.ProblemsSolved,
		}
		if u, ok := users[r.UserID]; ok {
			entry.Profile = u.Profile()
		}
		out = append(out, entry)
	}
	return out, nil
}
