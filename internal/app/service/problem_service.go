package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	contestRepo repository.ContestRepository
	now         func() time.Time
}

func NewProblemService(problemRepo repository.ProblemRepository, contestRepo repository.ContestRepository) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		contestRepo: contestRepo,
		now:         time.Now,
	}
}

type CreateProblemRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Stdin       string                  `json:"stdin"`
	Stdout      string                  `json:"stdout"`
	Difficulty  model.ProblemDifficulty `json:"difficulty"`
	Tags        []string                `json:"tags"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, userID string, req CreateProblemRequest) (*model.Problem, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || req.Stdout == "" {
		return nil, common.Errorf("title, description and stdout are required: %w", common.ErrBadRequest)
	}
	if !req.Difficulty.Valid() {
		return nil, common.Errorf("difficulty must be easy, medium or hard: %w", common.ErrValidation)
	}

	problem := &model.Problem{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Stdin:       req.Stdin,
		Stdout:      req.Stdout,
		Difficulty:  req.Difficulty,
		Tags:        normalizeTags(req.Tags),
		CreatedByID: &userID,
	}
	if err := s.problemRepo.CreateProblem(ctx, nil, problem); err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}
	problem.IsVisible = true

	logger.Info().Str("problem_id", problem.ID).Str("slug", problem.Slug).Msg("problem created")
	return problem, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := []string{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// GetProblem returns a problem the caller may see: a visible one, any one for
// admins, or a hidden contest problem once its contest has started for a participant.
// Hidden problems are reported as not found.
func (s *ProblemService) GetProblem(ctx context.Context, userID, role, problemID string) (*model.Problem, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	now := s.now()
	problem.IsVisible = problem.VisibleAt(now)

	if role == model.RoleAdmin {
		return problem, nil
	}
	if !problem.IsVisible {
		contest, err := s.contestRepo.FindContestByID(ctx, *problem.ContestID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("failed to load contest: %w", err)
		}
		if contest == nil || !contest.HasStarted(now) || !contest.IsParticipant(userID) {
			return nil, common.Errorf("problem not found: %w", common.ErrNotFound)
		}
	}
	problem.Stdout = ""
	return problem, nil
}

type ListProblemsQuery struct {
	Page       int
	Limit      int
	Difficulty model.ProblemDifficulty
	Tag        string
}

type ProblemPage struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

func (s *ProblemService) ListProblems(ctx context.Context, role string, q ListProblemsQuery) (*ProblemPage, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Difficulty != "" && !q.Difficulty.Valid() {
		return nil, common.Errorf("unknown difficulty %q: %w", q.Difficulty, common.ErrBadRequest)
	}

	now := s.now()
	filter := repository.ProblemFilter{
		Limit:      q.Limit,
		Offset:     (q.Page - 1) * q.Limit,
		Difficulty: q.Difficulty,
		Tag:        strings.ToLower(strings.TrimSpace(q.Tag)),
	}
	if role != model.RoleAdmin {
		filter.VisibleAt = &now
	}

	problems, total, err := s.problemRepo.ListProblems(ctx, filter)
	if err != nil {
		return nil, common.Errorf("failed to list problems: %w", err)
	}
	for i := range problems {
		problems[i].IsVisible = problems[i].VisibleAt(now)
		if role != model.RoleAdmin {
			problems[i].Stdout = ""
		}
	}
	return &ProblemPage{Problems: problems, Total: total, Page: q.Page, Limit: q.Limit}, nil
}
