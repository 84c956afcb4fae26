package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/platform/judge"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeProblemRepo struct {
	mu       sync.Mutex
	problems map[string]*model.Problem
	contests *fakeContestRepo
}

func newFakeProblemRepo(contests *fakeContestRepo) *fakeProblemRepo {
	return &fakeProblemRepo{problems: map[string]*model.Problem{}, contests: contests}
}

func (r *fakeProblemRepo) add(p model.Problem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.problems[p.ID] = &p
}

func (r *fakeProblemRepo) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.problems {
		if existing.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	p.CreatedAt, p.UpdatedAt = t0, t0
	cp := *p
	r.problems[p.ID] = &cp
	return nil
}

func (r *fakeProblemRepo) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	if cp.IsContestBound() && r.contests != nil {
		if c, ok := r.contests.get(*cp.ContestID); ok {
			end := c.EndTime
			cp.ContestEndTime = &end
		}
	}
	return &cp, nil
}

func (r *fakeProblemRepo) ListProblems(ctx context.Context, f repository.ProblemFilter) ([]model.Problem, int, error) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.problems))
	for id := range r.problems {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)

	var out []model.Problem
	for _, id := range ids {
		p, _ := r.FindProblemByID(ctx, id)
		if f.Difficulty != "" && p.Difficulty != f.Difficulty {
			continue
		}
		if f.VisibleAt != nil && !p.VisibleAt(*f.VisibleAt) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeProblemRepo) BindToContest(ctx context.Context, tx *sql.Tx, problemID, contestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[problemID]
	if !ok || p.IsContestBound() {
		return common.ErrConflict
	}
	cid := contestID
	p.ContestID = &cid
	return nil
}

func (r *fakeProblemRepo) IncrementStatistics(ctx context.Context, problemID string, submissions, accepted, rejected int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.problems[problemID]
	if !ok {
		return common.ErrNotFound
	}
	p.Statistics.TotalSubmissions += submissions
	p.Statistics.TotalAcceptedSubmissions += accepted
	p.Statistics.TotalRejectedSubmissions += rejected
	return nil
}

type fakeContestRepo struct {
	mu       sync.Mutex
	contests map[string]*model.Contest
}

func newFakeContestRepo() *fakeContestRepo {
	return &fakeContestRepo{contests: map[string]*model.Contest{}}
}

func (r *fakeContestRepo) add(c model.Contest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contests[c.ID] = &c
}

func (r *fakeContestRepo) get(id string) (model.Contest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[id]
	if !ok {
		return model.Contest{}, false
	}
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.TotalParticipants = len(cp.Participants)
	return cp, true
}

func (r *fakeContestRepo) CreateContest(ctx context.Context, tx *sql.Tx, c *model.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.CreatedAt, c.UpdatedAt = t0, t0
	cp := *c
	r.contests[c.ID] = &cp
	return nil
}

func (r *fakeContestRepo) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	c, ok := r.get(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (r *fakeContestRepo) ListContests(ctx context.Context) ([]model.Contest, error) {
	return r.filter(func(model.Contest) bool { return true }), nil
}

func (r *fakeContestRepo) ListEndedBefore(ctx context.Context, now time.Time) ([]model.Contest, error) {
	out := r.filter(func(c model.Contest) bool { return c.EndTime.Before(now) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (r *fakeContestRepo) filter(keep func(model.Contest) bool) []model.Contest {
	r.mu.Lock()
	ids := make([]string, 0, len(r.contests))
	for id := range r.contests {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)

	out := []model.Contest{}
	for _, id := range ids {
		c, _ := r.get(id)
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeContestRepo) AddParticipant(ctx context.Context, contestID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contests[contestID]
	if !ok {
		return false, common.ErrNotFound
	}
	if c.IsParticipant(userID) {
		return false, nil
	}
	c.Participants = append(c.Participants, userID)
	return true, nil
}

type fakeLeaderboardRepo struct {
	mu      sync.Mutex
	entries map[[2]string]*model.LeaderboardEntry
	order   [][2]string
}

func newFakeLeaderboardRepo() *fakeLeaderboardRepo {
	return &fakeLeaderboardRepo{entries: map[[2]string]*model.LeaderboardEntry{}}
}

func copyEntry(e *model.LeaderboardEntry) *model.LeaderboardEntry {
	cp := *e
	for i := range cp.Slots {
		cp.Slots[i].CountedIncorrectSubmissionIDs = append([]string(nil), e.Slots[i].CountedIncorrectSubmissionIDs...)
	}
	return &cp
}

func (r *fakeLeaderboardRepo) GetEntry(ctx context.Context, tx *sql.Tx, contestID, userID string) (*model.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[[2]string{contestID, userID}]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyEntry(e), nil
}

func (r *fakeLeaderboardRepo) CreateEntry(ctx context.Context, tx *sql.Tx, e *model.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{e.ContestID, e.UserID}
	if _, ok := r.entries[key]; ok {
		return common.ErrConflict
	}
	e.Version = 1
	r.entries[key] = copyEntry(e)
	r.order = append(r.order, key)
	return nil
}

func (r *fakeLeaderboardRepo) UpdateEntry(ctx context.Context, tx *sql.Tx, e *model.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{e.ContestID, e.UserID}
	stored, ok := r.entries[key]
	if !ok || stored.Version != e.Version {
		return common.ErrConflict
	}
	e.Version++
	r.entries[key] = copyEntry(e)
	return nil
}

func (r *fakeLeaderboardRepo) ListEntries(ctx context.Context, contestID string) ([]model.LeaderboardEntry, error) {
	byContest, _ := r.ListEntriesForContests(ctx, []string{contestID})
	return byContest[contestID], nil
}

func (r *fakeLeaderboardRepo) ListEntriesForContests(ctx context.Context, contestIDs []string) (map[string][]model.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, id := range contestIDs {
		want[id] = true
	}
	out := map[string][]model.LeaderboardEntry{}
	for _, key := range r.order {
		if want[key[0]] {
			out[key[0]] = append(out[key[0]], *copyEntry(r.entries[key]))
		}
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	mu   sync.Mutex
	subs []*model.Submission
}

func (r *fakeSubmissionRepo) CreateSubmission(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = t0
	}
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.subs = append(r.subs, &cp)
	return nil
}

func (r *fakeSubmissionRepo) find(id string) *model.Submission {
	for _, s := range r.subs {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *fakeSubmissionRepo) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.find(id)
	if s == nil {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubmissionRepo) UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, s *model.Submission) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.find(s.ID)
	if stored == nil || stored.Status.IsTerminal() {
		return false, nil
	}
	cp := *s
	*stored = cp
	return true, nil
}

func (r *fakeSubmissionRepo) LatestByUser(ctx context.Context, userID string) (*model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Submission
	for _, s := range r.subs {
		if s.UserID == userID && (latest == nil || s.CreatedAt.After(latest.CreatedAt)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeSubmissionRepo) ListOtherUsersCode(ctx context.Context, problemID, excludeUserID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var codes []string
	for _, s := range r.subs {
		if s.ProblemID == problemID && s.UserID != excludeUserID {
			codes = append(codes, s.Code)
		}
	}
	return codes, nil
}

func (r *fakeSubmissionRepo) ListByUserAndProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Submission{}
	for i := len(r.subs) - 1; i >= 0; i-- {
		s := r.subs[i]
		if s.UserID == userID && s.ProblemID == problemID && !s.IsRemoved {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) SoftDelete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.find(id)
	if s == nil || s.UserID != userID || s.IsRemoved {
		return common.ErrNotFound
	}
	s.IsRemoved = true
	return nil
}

func (r *fakeSubmissionRepo) ContestResults(ctx context.Context, contestID string, problemIDs []string, from, to time.Time) ([]model.ParticipantResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in := map[string]bool{}
	for _, id := range problemIDs {
		in[id] = true
	}
	byUser := map[string]*model.ParticipantResult{}
	var order []string
	for _, s := range r.subs {
		if !in[s.ProblemID] || s.IsRemoved || s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
			continue
		}
		pr, ok := byUser[s.UserID]
		if !ok {
			pr = &model.ParticipantResult{UserID: s.UserID}
			byUser[s.UserID] = pr
			order = append(order, s.UserID)
		}
		pr.TotalSubmissions++
		switch {
		case s.Status.IsAccepted():
			pr.PassedSubmissions++
		case s.Status.IsTerminal():
			pr.FailedSubmissions++
		}
		pr.SimilarSubmissions = pr.SimilarSubmissions || s.IsSimilar
	}
	out := []model.ParticipantResult{}
	for _, id := range order {
		out = append(out, *byUser[id])
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return common.ErrConflict
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, err := r.FindByID(ctx, id); err == nil {
			out[id] = u
		}
	}
	return out, nil
}

// fakeGateway hands out sequential tokens and serves scripted poll results.
type fakeGateway struct {
	mu        sync.Mutex
	submitErr error
	pollErr   error
	submitted []judge.SubmitRequest
	results   map[string]*judge.Result
	polls     int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{results: map[string]*judge.Result{}}
}

func (g *fakeGateway) Submit(ctx context.Context, req judge.SubmitRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.submitErr != nil {
		return "", g.submitErr
	}
	g.submitted = append(g.submitted, req)
	return "tok-" + string(rune('a'+len(g.submitted)-1)), nil
}

func (g *fakeGateway) Poll(ctx context.Context, token string) (*judge.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.polls++
	if g.pollErr != nil {
		return nil, g.pollErr
	}
	res, ok := g.results[token]
	if !ok {
		return &judge.Result{StatusID: judge.StatusInQueue, Description: "In Queue", Status: model.StatusQueued}, nil
	}
	return res, nil
}
