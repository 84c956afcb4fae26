package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type LeaderboardRepository interface {
	// GetEntry returns common.ErrNotFound when the user has no entry yet.
	GetEntry(ctx context.Context, tx *sql.Tx, contestID, userID string) (*model.LeaderboardEntry, error)
	CreateEntry(ctx context.Context, tx *sql.Tx, entry *model.LeaderboardEntry) error
	// UpdateEntry writes score and slots if the stored version still matches entry.Version.
	UpdateEntry(ctx context.Context, tx *sql.Tx, entry *model.LeaderboardEntry) error
	ListEntries(ctx context.Context, contestID string) ([]model.LeaderboardEntry, error)
	ListEntriesForContests(ctx context.Context, contestIDs []string) (map[string][]model.LeaderboardEntry, error)
}

type pgLeaderboardRepository struct {
	db *sql.DB
}

func NewPgLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &pgLeaderboardRepository{db: db}
}

func (r *pgLeaderboardRepository) GetEntry(ctx context.Context, tx *sql.Tx, contestID, userID string) (*model.LeaderboardEntry, error) {
	q := conn(r.db, tx)
	e := &model.LeaderboardEntry{ContestID: contestID, UserID: userID}
	err := q.QueryRowContext(ctx, `
        SELECT score, version, created_at, updated_at FROM leaderboard_entries
        WHERE contest_id = $1 AND user_id = $2 FOR UPDATE`, contestID, userID).
		Scan(&e.Score, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLeaderboardRepository.GetEntry: %w", err)
	}

	rows, err := q.QueryContext(ctx, slotSelect+` WHERE contest_id = $1 AND user_id = $2 ORDER BY tier`, contestID, userID)
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.GetEntry slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		_, _, slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("pgLeaderboardRepository.GetEntry slot scan: %w", err)
		}
		if slot.Tier >= 0 && slot.Tier < len(e.Slots) {
			e.Slots[slot.Tier] = slot
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.GetEntry rows.Err: %w", err)
	}
	return e, nil
}

func (r *pgLeaderboardRepository) CreateEntry(ctx context.Context, tx *sql.Tx, e *model.LeaderboardEntry) error {
	q := conn(r.db, tx)
	err := q.QueryRowContext(ctx, `
        INSERT INTO leaderboard_entries (contest_id, user_id, score, version)
        VALUES ($1, $2, $3, 1)
        RETURNING version, created_at, updated_at`, e.ContestID, e.UserID, e.Score).
		Scan(&e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("leaderboard entry for %s/%s created concurrently: %w", e.ContestID, e.UserID, common.ErrConflict)
		}
		return fmt.Errorf("pgLeaderboardRepository.CreateEntry: %w", err)
	}

	for _, s := range e.Slots {
		_, err := q.ExecContext(ctx, `
            INSERT INTO leaderboard_slots (contest_id, user_id, problem_id, tier, submission_id, accepted_time_seconds,
                                           has_accepted_submission, number_of_incorrect_submissions, counted_incorrect_ids)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ContestID, e.UserID, s.ProblemID, s.Tier, s.SubmissionID, s.AcceptedTimeSeconds,
			s.HasAcceptedSubmission, s.NumberOfIncorrectSubmissions, pq.Array(nonNil(s.CountedIncorrectSubmissionIDs)))
		if err != nil {
			return fmt.Errorf("pgLeaderboardRepository.CreateEntry slot %s: %w", s.ProblemID, err)
		}
	}
	return nil
}

func (r *pgLeaderboardRepository) UpdateEntry(ctx context.Context, tx *sql.Tx, e *model.LeaderboardEntry) error {
	q := conn(r.db, tx)
	err := q.QueryRowContext(ctx, `
        UPDATE leaderboard_entries SET score = $1, version = version + 1, updated_at = NOW()
        WHERE contest_id = $2 AND user_id = $3 AND version = $4
        RETURNING version, updated_at`, e.Score, e.ContestID, e.UserID, e.Version).
		Scan(&e.Version, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("leaderboard entry %s/%s changed concurrently: %w", e.ContestID, e.UserID, common.ErrConflict)
		}
		return fmt.Errorf("pgLeaderboardRepository.UpdateEntry: %w", err)
	}

	for _, s := range e.Slots {
		_, err := q.ExecContext(ctx, `
            UPDATE leaderboard_slots SET submission_id = $1, accepted_time_seconds = $2, has_accepted_submission = $3,
                   number_of_incorrect_submissions = $4, counted_incorrect_ids = $5
            WHERE contest_id = $6 AND user_id = $7 AND problem_id = $8`,
			s.SubmissionID, s.AcceptedTimeSeconds, s.HasAcceptedSubmission, s.NumberOfIncorrectSubmissions,
			pq.Array(nonNil(s.CountedIncorrectSubmissionIDs)), e.ContestID, e.UserID, s.ProblemID)
		if err != nil {
			return fmt.Errorf("pgLeaderboardRepository.UpdateEntry slot %s: %w", s.ProblemID, err)
		}
	}
	return nil
}

func (r *pgLeaderboardRepository) ListEntries(ctx context.Context, contestID string) ([]model.LeaderboardEntry, error) {
	byContest, err := r.ListEntriesForContests(ctx, []string{contestID})
	if err != nil {
		return nil, err
	}
	return byContest[contestID], nil
}

func (r *pgLeaderboardRepository) ListEntriesForContests(ctx context.Context, contestIDs []string) (map[string][]model.LeaderboardEntry, error) {
	out := make(map[string][]model.LeaderboardEntry, len(contestIDs))
	if len(contestIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT contest_id, user_id, score, version, created_at, updated_at FROM leaderboard_entries
        WHERE contest_id = ANY($1) ORDER BY contest_id, created_at, user_id`, pq.Array(contestIDs))
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.ListEntriesForContests query: %w", err)
	}
	index := make(map[[2]string]int)
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ContestID, &e.UserID, &e.Score, &e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("pgLeaderboardRepository.ListEntriesForContests scan: %w", err)
		}
		index[[2]string{e.ContestID, e.UserID}] = len(out[e.ContestID])
		out[e.ContestID] = append(out[e.ContestID], e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.ListEntriesForContests rows.Err: %w", err)
	}

	slotRows, err := r.db.QueryContext(ctx, slotSelect+` WHERE contest_id = ANY($1)`, pq.Array(contestIDs))
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.ListEntriesForContests slots: %w", err)
	}
	defer slotRows.Close()
	for slotRows.Next() {
		contestID, userID, slot, err := scanSlot(slotRows)
		if err != nil {
			return nil, fmt.Errorf("pgLeaderboardRepository.ListEntriesForContests slot scan: %w", err)
		}
		i, ok := index[[2]string{contestID, userID}]
		if !ok || slot.Tier < 0 || slot.Tier > 2 {
			continue
		}
		out[contestID][i].Slots[slot.Tier] = slot
	}
	if err := slotRows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.ListEntriesForContests slot rows.Err: %w", err)
	}
	return out, nil
}

const slotSelect = `
        SELECT contest_id, user_id, problem_id, tier, submission_id, accepted_time_seconds,
               has_accepted_submission, number_of_incorrect_submissions, counted_incorrect_ids
        FROM leaderboard_slots`

func scanSlot(row interface{ Scan(dest ...any) error }) (string, string, model.ProblemSlot, error) {
	var contestID, userID string
	var s model.ProblemSlot
	err := row.Scan(&contestID, &userID, &s.ProblemID, &s.Tier, &s.SubmissionID, &s.AcceptedTimeSeconds,
		&s.HasAcceptedSubmission, &s.NumberOfIncorrectSubmissions, pq.Array(&s.CountedIncorrectSubmissionIDs))
	return contestID, userID, s, err
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
