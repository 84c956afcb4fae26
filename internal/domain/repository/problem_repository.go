package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type ProblemFilter struct {
	Limit      int
	Offset     int
	Difficulty model.ProblemDifficulty
	Tag        string
	// When set, only problems visible at this instant are returned.
	VisibleAt *time.Time
}

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	ListProblems(ctx context.Context, filter ProblemFilter) ([]model.Problem, int, error)
	// BindToContest stamps a standalone problem; a problem already bound returns ErrConflict.
	BindToContest(ctx context.Context, tx *sql.Tx, problemID, contestID string) error
	IncrementStatistics(ctx context.Context, problemID string, submissions, accepted, rejected int) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, title, slug, description, stdin, stdout, difficulty, tags, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING created_at, updated_at`

	if p.Tags == nil {
		p.Tags = []string{}
	}
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		p.ID, p.Title, p.Slug, p.Description, p.Stdin, p.Stdout, p.Difficulty, pq.Array(p.Tags), p.CreatedByID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

const problemSelect = `
        SELECT p.id, p.title, p.slug, p.description, p.stdin, p.stdout, p.difficulty, p.tags,
               p.contest_id, c.end_time,
               p.total_submissions, p.total_accepted_submissions, p.total_rejected_submissions,
               p.created_by, p.created_at, p.updated_at
        FROM problems p
        LEFT JOIN contests c ON p.contest_id = c.id`

func scanProblem(row interface{ Scan(dest ...any) error }) (*model.Problem, error) {
	p := &model.Problem{}
	var endTime sql.NullTime
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Stdin, &p.Stdout, &p.Difficulty, pq.Array(&p.Tags),
		&p.ContestID, &endTime,
		&p.Statistics.TotalSubmissions, &p.Statistics.TotalAcceptedSubmissions, &p.Statistics.TotalRejectedSubmissions,
		&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		p.ContestEndTime = &t
	}
	return p, nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	p, err := scanProblem(r.db.QueryRowContext(ctx, problemSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, f ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if f.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("p.difficulty = $%d", argID))
		args = append(args, f.Difficulty)
		argID++
	}
	if f.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(p.tags)", argID))
		args = append(args, f.Tag)
		argID++
	}
	if f.VisibleAt != nil {
		conditions = append(conditions, fmt.Sprintf("(p.contest_id IS NULL OR c.end_time <= $%d)", argID))
		args = append(args, *f.VisibleAt)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM problems p LEFT JOIN contests c ON p.contest_id = c.id` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	query := problemSelect + where + fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems rows.Err: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) BindToContest(ctx context.Context, tx *sql.Tx, problemID, contestID string) error {
	res, err := conn(r.db, tx).ExecContext(ctx,
		`UPDATE problems SET contest_id = $1, updated_at = NOW() WHERE id = $2 AND contest_id IS NULL`,
		contestID, problemID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.BindToContest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgProblemRepository.BindToContest rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("problem %s is missing or already bound to a contest: %w", problemID, common.ErrConflict)
	}
	return nil
}

func (r *pgProblemRepository) IncrementStatistics(ctx context.Context, problemID string, submissions, accepted, rejected int) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE problems SET
            total_submissions = total_submissions + $1,
            total_accepted_submissions = total_accepted_submissions + $2,
            total_rejected_submissions = total_rejected_submissions + $3
        WHERE id = $4`, submissions, accepted, rejected, problemID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.IncrementStatistics: %w", err)
	}
	return nil
}
