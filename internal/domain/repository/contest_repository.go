package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ContestRepository interface {
	CreateContest(ctx context.Context, tx *sql.Tx, contest *model.Contest) error
	// FindContestByID loads the contest with its participant set.
	FindContestByID(ctx context.Context, id string) (*model.Contest, error)
	ListContests(ctx context.Context) ([]model.Contest, error)
	// ListEndedBefore returns contests with end_time < now, oldest end first.
	ListEndedBefore(ctx context.Context, now time.Time) ([]model.Contest, error)
	AddParticipant(ctx context.Context, contestID, userID string) (bool, error)
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) CreateContest(ctx context.Context, tx *sql.Tx, c *model.Contest) error {
	query := `INSERT INTO contests (id, title, slug, description, start_time, end_time,
	                                easy_problem_id, medium_problem_id, hard_problem_id, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at, updated_at`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		c.ID, c.Title, c.Slug, c.Description, c.StartTime, c.EndTime,
		c.ProblemIDs[0], c.ProblemIDs[1], c.ProblemIDs[2], c.CreatedByID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("contest with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgContestRepository.CreateContest: %w", err)
	}
	return nil
}

const contestSelect = `
        SELECT c.id, c.title, c.slug, c.description, c.start_time, c.end_time,
               c.easy_problem_id, c.medium_problem_id, c.hard_problem_id, c.created_by,
               c.created_at, c.updated_at,
               (SELECT COUNT(*) FROM contest_participants cp WHERE cp.contest_id = c.id)
        FROM contests c`

func scanContest(row interface{ Scan(dest ...any) error }) (*model.Contest, error) {
	c := &model.Contest{}
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.StartTime, &c.EndTime,
		&c.ProblemIDs[0], &c.ProblemIDs[1], &c.ProblemIDs[2], &c.CreatedByID,
		&c.CreatedAt, &c.UpdatedAt, &c.TotalParticipants)
	return c, err
}

func (r *pgContestRepository) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	c, err := scanContest(r.db.QueryRowContext(ctx, contestSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.FindContestByID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM contest_participants WHERE contest_id = $1 ORDER BY registered_at, user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.FindContestByID participants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("pgContestRepository.FindContestByID participant scan: %w", err)
		}
		c.Participants = append(c.Participants, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.FindContestByID rows.Err: %w", err)
	}
	return c, nil
}

func (r *pgContestRepository) ListContests(ctx context.Context) ([]model.Contest, error) {
	return r.list(ctx, "ListContests", contestSelect+` ORDER BY c.start_time DESC`)
}

func (r *pgContestRepository) ListEndedBefore(ctx context.Context, now time.Time) ([]model.Contest, error) {
	return r.list(ctx, "ListEndedBefore", contestSelect+` WHERE c.end_time < $1 ORDER BY c.end_time, c.id`, now)
}

func (r *pgContestRepository) list(ctx context.Context, op, query string, args ...any) ([]model.Contest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	contests := []model.Contest{}
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, fmt.Errorf("pgContestRepository.%s scan: %w", op, err)
		}
		contests = append(contests, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.%s rows.Err: %w", op, err)
	}
	return contests, nil
}

func (r *pgContestRepository) AddParticipant(ctx context.Context, contestID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contest_participants (contest_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		contestID, userID)
	if err != nil {
		return false, fmt.Errorf("pgContestRepository.AddParticipant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgContestRepository.AddParticipant rows: %w", err)
	}
	return n > 0, nil
}
