package service

import (
	"testing"
	"time"

	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/scoring"
	"contest_arena/internal/platform/judge"
	"contest_arena/internal/platform/lock"
)

// arena wires every service over in-memory repositories with one running contest
// c1 (t0 to t0+2h, participants alice and bob) and one standalone problem.
type arena struct {
	problems     *fakeProblemRepo
	contests     *fakeContestRepo
	leaderboards *fakeLeaderboardRepo
	submissions  *fakeSubmissionRepo
	users        *fakeUserRepo
	gateway      *fakeGateway

	verdictSvc     *VerdictService
	submissionSvc  *SubmissionService
	contestSvc     *ContestService
	problemSvc     *ProblemService
	leaderboardSvc *LeaderboardService
}

func newArena(t *testing.T, now time.Time) *arena {
	t.Helper()

	a := &arena{
		contests:     newFakeContestRepo(),
		leaderboards: newFakeLeaderboardRepo(),
		submissions:  &fakeSubmissionRepo{},
		users: newFakeUserRepo(
			model.User{ID: "alice", Username: "alice", DisplayName: "Alice", Role: model.RoleUser},
			model.User{ID: "bob", Username: "bob", DisplayName: "Bob", Role: model.RoleUser},
			model.User{ID: "eve", Username: "eve", Role: model.RoleUser},
			model.User{ID: "root", Username: "root", Role: model.RoleAdmin},
		),
		gateway: newFakeGateway(),
	}
	a.problems = newFakeProblemRepo(a.contests)

	a.contests.add(model.Contest{
		ID:           "c1",
		Title:        "Spring Round",
		StartTime:    t0,
		EndTime:      t0.Add(2 * time.Hour),
		ProblemIDs:   [3]string{"p-easy", "p-medium", "p-hard"},
		Participants: []string{"alice", "bob"},
	})
	c1 := "c1"
	a.problems.add(model.Problem{ID: "p-easy", Slug: "p-easy", Difficulty: model.DifficultyEasy, ContestID: &c1, Stdout: "1\n2"})
	a.problems.add(model.Problem{ID: "p-medium", Slug: "p-medium", Difficulty: model.DifficultyMedium, ContestID: &c1, Stdout: "ok"})
	a.problems.add(model.Problem{ID: "p-hard", Slug: "p-hard", Difficulty: model.DifficultyHard, ContestID: &c1, Stdout: "ok"})
	a.problems.add(model.Problem{ID: "p-free", Slug: "p-free", Difficulty: model.DifficultyEasy, Stdout: "42"})

	locker := lock.NewLocalLocker()
	ledger := scoring.NewLedger(scoring.DefaultRules)
	clock := fixedClock(now)

	a.verdictSvc = NewVerdictService(a.problems, a.contests, a.leaderboards, noTx{}, locker, ledger)
	a.verdictSvc.now = clock

	a.submissionSvc = NewSubmissionService(a.submissions, a.problems, a.verdictSvc, a.gateway, judge.DefaultCatalog(),
		SubmissionSettings{Cooldown: 10 * time.Second})
	a.submissionSvc.now = clock

	a.contestSvc = NewContestService(a.contests, a.problems, a.leaderboards, a.submissions, a.users, noTx{}, locker, ledger)
	a.contestSvc.now = clock

	a.problemSvc = NewProblemService(a.problems, a.contests)
	a.problemSvc.now = clock

	a.leaderboardSvc = NewLeaderboardService(a.contests, a.leaderboards, a.users)
	a.leaderboardSvc.now = clock
	return a
}

func seconds(v float64) *float64 { return &v }
