package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/domain/scoring"
	"contest_arena/internal/platform/judge"
	"contest_arena/internal/platform/logger"

	"github.com/google/uuid"
)

// JudgeGateway is the grading service the submission flow depends on.
type JudgeGateway interface {
	Submit(ctx context.Context, req judge.SubmitRequest) (string, error)
	Poll(ctx context.Context, token string) (*judge.Result, error)
}

type SubmissionSettings struct {
	Cooldown            time.Duration
	SimilarityThreshold float64
}

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	verdicts       *VerdictService
	gateway        JudgeGateway
	languages      *judge.Catalog
	settings       SubmissionSettings
	now            func() time.Time
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	verdicts *VerdictService,
	gateway JudgeGateway,
	languages *judge.Catalog,
	settings SubmissionSettings,
) *SubmissionService {
	if settings.SimilarityThreshold <= 0 {
		settings.SimilarityThreshold = scoring.DefaultSimilarityThreshold
	}
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		verdicts:       verdicts,
		gateway:        gateway,
		languages:      languages,
		settings:       settings,
		now:            time.Now,
	}
}

type CreateSubmissionRequest struct {
	ProblemID    string             `json:"problem_id"`
	Language     string             `json:"language"`
	Code         string             `json:"code"`
	UserActivity model.UserActivity `json:"user_activity"`
	// Flat form sent by older editor clients.
	KeyStrokes  int `json:"key_strokes,omitempty"`
	FocusEvents int `json:"focus_events,omitempty"`
}

// activity prefers the nested object and falls back to the flat fields.
func (r CreateSubmissionRequest) activity() model.UserActivity {
	if r.UserActivity != (model.UserActivity{}) {
		return r.UserActivity
	}
	return model.UserActivity{KeyStrokes: r.KeyStrokes, FocusEvents: r.FocusEvents}
}

func (s *SubmissionService) CreateSubmission(ctx context.Context, userID string, req CreateSubmissionRequest) (*model.Submission, error) {
	if strings.TrimSpace(req.ProblemID) == "" || strings.TrimSpace(req.Code) == "" {
		return nil, common.Errorf("problem_id and code are required: %w", common.ErrBadRequest)
	}

	latest, err := s.submissionRepo.LatestByUser(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, common.Errorf("failed to check submission cooldown: %w", err)
	}
	if latest != nil && s.now().Sub(latest.CreatedAt) < s.settings.Cooldown {
		return nil, common.ErrRateLimited
	}

	problem, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}

	language, languageID := s.languages.Resolve(req.Language)

	others, err := s.submissionRepo.ListOtherUsersCode(ctx, problem.ID, userID)
	if err != nil {
		return nil, common.Errorf("failed to load prior submissions: %w", err)
	}
	isSimilar := scoring.FirstSimilar(req.Code, others, s.settings.SimilarityThreshold) >= 0

	token, err := s.gateway.Submit(ctx, judge.SubmitRequest{
		Source:         req.Code,
		Stdin:          problem.Stdin,
		ExpectedOutput: problem.Stdout,
		LanguageID:     languageID,
	})
	if err != nil {
		return nil, common.Errorf("failed to submit code for grading: %w", err)
	}

	submission := &model.Submission{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProblemID:  problem.ID,
		Language:   language,
		LanguageID: languageID,
		Code:       req.Code,
		JudgeToken: token,
		Status:     model.StatusQueued,
		StatusCode: judge.StatusInQueue,
		StatusText: "In Queue",
		IsSimilar:  isSimilar,
		Activity:   req.activity(),
	}
	if err := s.submissionRepo.CreateSubmission(ctx, nil, submission); err != nil {
		return nil, common.Errorf("failed to create submission: %w", err)
	}

	if err := s.problemRepo.IncrementStatistics(ctx, problem.ID, 1, 0, 0); err != nil {
		logger.Error().Err(err).Str("problem_id", problem.ID).Msg("failed to bump submission counter")
	}

	logger.Info().
		Str("submission_id", submission.ID).
		Str("user_id", userID).
		Str("problem_id", problem.ID).
		Str("language", language).
		Bool("similar", isSimilar).
		Msg("submission created")
	return submission, nil
}

// SubmissionResult is a submission with the judge output of its latest poll.
type SubmissionResult struct {
	*model.Submission
	Stdout        *string `json:"stdout,omitempty"`
	Stderr        *string `json:"stderr,omitempty"`
	CompileOutput *string `json:"compile_output,omitempty"`
}

// GetSubmissionResult returns the submission, polling the judge first while it is not terminal.
// Judge output is only included for admins.
func (s *SubmissionService) GetSubmissionResult(ctx context.Context, userID, role, submissionID string) (*SubmissionResult, error) {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, common.Errorf("submission not found: %w", err)
	}
	isAdmin := role == model.RoleAdmin
	if sub.IsRemoved && !isAdmin {
		return nil, common.Errorf("submission %s was removed: %w", submissionID, common.ErrNotFound)
	}
	if sub.UserID != userID && !isAdmin {
		return nil, common.Errorf("submission belongs to another user: %w", common.ErrForbidden)
	}

	out := &SubmissionResult{Submission: sub}
	if !sub.Status.IsTerminal() {
		res, err := s.refresh(ctx, sub)
		if err != nil {
			return nil, err
		}
		if isAdmin {
			out.attachOutput(res)
		}
	} else if isAdmin {
		// Judge output is not stored; fetch it again for admins.
		res, err := s.gateway.Poll(ctx, sub.JudgeToken)
		if err != nil {
			logger.Warn().Err(err).Str("submission_id", sub.ID).Msg("failed to fetch judge output")
		} else {
			out.attachOutput(res)
		}
	}

	if err := s.applyVerdict(ctx, sub); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SubmissionResult) attachOutput(res *judge.Result) {
	r.Stdout, r.Stderr, r.CompileOutput = res.Stdout, res.Stderr, res.CompileOutput
}

// refresh polls the judge and stores the latest state on sub.
func (s *SubmissionService) refresh(ctx context.Context, sub *model.Submission) (*judge.Result, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, sub.ProblemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("submission %s references missing problem %s: %w", sub.ID, sub.ProblemID, common.ErrInternalServer)
		}
		return nil, common.Errorf("failed to load problem: %w", err)
	}

	res, err := s.gateway.Poll(ctx, sub.JudgeToken)
	if err != nil {
		return nil, common.Errorf("failed to poll judge for submission %s: %w", sub.ID, err)
	}

	sub.Status = res.Status
	sub.StatusCode = res.StatusID
	sub.StatusText = res.Description
	sub.TimeSeconds = res.TimeSeconds
	sub.MemoryKb = res.MemoryKb
	sub.PassedTestCases = judge.PassedTests(problem.Stdout, res.Stdout)

	transitioned, err := s.submissionRepo.UpdateSubmissionResult(ctx, nil, sub)
	if err != nil {
		return nil, common.Errorf("failed to store submission result: %w", err)
	}
	if transitioned && sub.Status.IsTerminal() {
		accepted, rejected := 0, 1
		if sub.Status.IsAccepted() {
			accepted, rejected = 1, 0
		}
		if err := s.problemRepo.IncrementStatistics(ctx, problem.ID, 0, accepted, rejected); err != nil {
			logger.Error().Err(err).Str("problem_id", problem.ID).Msg("failed to bump verdict counters")
		}
	}
	return res, nil
}

// applyVerdict forwards the submission's state to the ledger. Accepted results
// without a positive time are held back rather than scored.
func (s *SubmissionService) applyVerdict(ctx context.Context, sub *model.Submission) error {
	if sub.Status.IsAccepted() && (sub.TimeSeconds == nil || *sub.TimeSeconds <= 0) {
		logger.Warn().Str("submission_id", sub.ID).Msg("accepted verdict has no execution time, not scored")
		return nil
	}
	if _, err := s.verdicts.ApplyVerdict(ctx, sub.UserID, sub.Verdict()); err != nil {
		return common.Errorf("failed to apply verdict for submission %s: %w", sub.ID, err)
	}
	return nil
}

func (s *SubmissionService) ListMySubmissions(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	if strings.TrimSpace(problemID) == "" {
		return nil, common.Errorf("problem_id is required: %w", common.ErrBadRequest)
	}
	subs, err := s.submissionRepo.ListByUserAndProblem(ctx, userID, problemID)
	if err != nil {
		return nil, common.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (s *SubmissionService) DeleteSubmission(ctx context.Context, userID, submissionID string) error {
	if err := s.submissionRepo.SoftDelete(ctx, submissionID, userID); err != nil {
		return common.Errorf("failed to delete submission %s: %w", submissionID, err)
	}
	logger.Info().Str("submission_id", submissionID).Str("user_id", userID).Msg("submission removed")
	return nil
}
