package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/lib/pq"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	// UpdateSubmissionResult stores the latest judge state. It reports true only
	// when the stored row was still queued or running before the write.
	UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, sub *model.Submission) (bool, error)
	// LatestByUser returns the user's most recent submission, removed ones included.
	LatestByUser(ctx context.Context, userID string) (*model.Submission, error)
	ListOtherUsersCode(ctx context.Context, problemID, excludeUserID string) ([]string, error)
	ListByUserAndProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error)
	SoftDelete(ctx context.Context, id, userID string) error
	// ContestResults counts each participant's submissions to problemIDs created in [from, to).
	ContestResults(ctx context.Context, contestID string, problemIDs []string, from, to time.Time) ([]model.ParticipantResult, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, language, language_id, code, judge_token,
	                                   status, status_code, status_text, is_similar, key_strokes, focus_events)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.Language, s.LanguageID, s.Code, s.JudgeToken,
		s.Status, s.StatusCode, s.StatusText, s.IsSimilar, s.Activity.KeyStrokes, s.Activity.FocusEvents,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

const submissionSelect = `
        SELECT id, user_id, problem_id, language, language_id, code, judge_token, status, status_code, status_text,
               time_seconds, memory_kb, passed_test_cases, is_similar, key_strokes, focus_events, is_removed,
               created_at, updated_at
        FROM submissions`

func scanSubmission(row interface{ Scan(dest ...any) error }) (*model.Submission, error) {
	s := &model.Submission{}
	var timeSeconds sql.NullFloat64
	var memoryKb sql.NullInt64
	err := row.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.Language, &s.LanguageID, &s.Code, &s.JudgeToken,
		&s.Status, &s.StatusCode, &s.StatusText, &timeSeconds, &memoryKb, &s.PassedTestCases, &s.IsSimilar,
		&s.Activity.KeyStrokes, &s.Activity.FocusEvents, &s.IsRemoved, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if timeSeconds.Valid {
		v := timeSeconds.Float64
		s.TimeSeconds = &v
	}
	if memoryKb.Valid {
		v := int(memoryKb.Int64)
		s.MemoryKb = &v
	}
	return s, nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	s, err := scanSubmission(r.db.QueryRowContext(ctx, submissionSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, s *model.Submission) (bool, error) {
	query := `UPDATE submissions
	          SET status = $1, status_code = $2, status_text = $3, time_seconds = $4, memory_kb = $5,
	              passed_test_cases = $6, updated_at = NOW()
	          WHERE id = $7 AND status IN ('queued', 'running')
	          RETURNING updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		s.Status, s.StatusCode, s.StatusText, s.TimeSeconds, s.MemoryKb, s.PassedTestCases, s.ID,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Another poll already stored a terminal verdict.
			return false, nil
		}
		return false, fmt.Errorf("pgSubmissionRepository.UpdateSubmissionResult: %w", err)
	}
	return true, nil
}

func (r *pgSubmissionRepository) LatestByUser(ctx context.Context, userID string) (*model.Submission, error) {
	s, err := scanSubmission(r.db.QueryRowContext(ctx,
		submissionSelect+` WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.LatestByUser: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListOtherUsersCode(ctx context.Context, problemID, excludeUserID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code FROM submissions WHERE problem_id = $1 AND user_id <> $2 ORDER BY created_at`,
		problemID, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListOtherUsersCode query: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListOtherUsersCode scan: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListOtherUsersCode rows.Err: %w", err)
	}
	return codes, nil
}

func (r *pgSubmissionRepository) ListByUserAndProblem(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	rows, err := r.db.QueryContext(ctx,
		submissionSelect+` WHERE user_id = $1 AND problem_id = $2 AND is_removed = FALSE ORDER BY created_at DESC`,
		userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUserAndProblem query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByUserAndProblem scan: %w", err)
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUserAndProblem rows.Err: %w", err)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) SoftDelete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE submissions SET is_removed = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND is_removed = FALSE`,
		id, userID)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.SoftDelete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.SoftDelete rows: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) ContestResults(ctx context.Context, contestID string, problemIDs []string, from, to time.Time) ([]model.ParticipantResult, error) {
	query := `
        SELECT cp.user_id, u.username,
               COUNT(s.id),
               COUNT(s.id) FILTER (WHERE s.status = 'accepted'),
               COUNT(s.id) FILTER (WHERE s.status NOT IN ('accepted', 'queued', 'running')),
               COALESCE(BOOL_OR(s.is_similar), FALSE),
               COALESCE(le.score, 0)
        FROM contest_participants cp
        JOIN users u ON u.id = cp.user_id
        LEFT JOIN submissions s ON s.user_id = cp.user_id AND s.problem_id = ANY($2) AND s.is_removed = FALSE
                                AND s.created_at >= $3 AND s.created_at < $4
        LEFT JOIN leaderboard_entries le ON le.contest_id = cp.contest_id AND le.user_id = cp.user_id
        WHERE cp.contest_id = $1
        GROUP BY cp.user_id, u.username, le.score, cp.registered_at
        ORDER BY cp.registered_at, cp.user_id`
	rows, err := r.db.QueryContext(ctx, query, contestID, pq.Array(problemIDs), from, to)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ContestResults query: %w", err)
	}
	defer rows.Close()

	results := []model.ParticipantResult{}
	for rows.Next() {
		var pr model.ParticipantResult
		if err := rows.Scan(&pr.UserID, &pr.Username, &pr.TotalSubmissions, &pr.PassedSubmissions,
			&pr.FailedSubmissions, &pr.SimilarSubmissions, &pr.Score); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ContestResults scan: %w", err)
		}
		results = append(results, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ContestResults rows.Err: %w", err)
	}
	return results, nil
}
