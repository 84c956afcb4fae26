package model

import "time"

type ProblemSlot struct {
	ProblemID                     string   `json:"problem_id"`
	Tier                          int      `json:"tier"`
	SubmissionID                  *string  `json:"submissions_id"`
	AcceptedTimeSeconds           float64  `json:"accepted_time,omitempty"`
	HasAcceptedSubmission         bool     `json:"has_accepted_submission"`
	NumberOfIncorrectSubmissions  int      `json:"number_of_incorrect_submissions"`
	CountedIncorrectSubmissionIDs []string `json:"-"`
}

// LeaderboardEntry is one user's progress inside one contest.
type LeaderboardEntry struct {
	ContestID string         `json:"contest_id"`
	UserID    string         `json:"user_id"`
	Score     int            `json:"score"`
	Slots     [3]ProblemSlot `json:"problems"`
	Version   int            `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (e *LeaderboardEntry) Slot(problemID string) *ProblemSlot {
	for i := range e.Slots {
		if e.Slots[i].ProblemID == problemID {
			return &e.Slots[i]
		}
	}
	return nil
}

func (e *LeaderboardEntry) ProblemsSolved() int {
	n := 0
	for _, s := range e.Slots {
		if s.HasAcceptedSubmission {
			n++
		}
	}
	return n
}

type ContestStandingRow struct {
	Rank           int            `json:"rank"`
	UserID         string         `json:"user_id"`
	Username       string         `json:"username"`
	Score          int            `json:"score"`
	ProblemsSolved int            `json:"problems_solved"`
	Problems       [3]ProblemSlot `json:"problems"`
}

type GlobalLeaderboardEntry struct {
	Rank           int          `json:"rank"`
	UserID         string       `json:"user_id"`
	Score          int          `json:"score"`
	ProblemsSolved int          `json:"problems_solved"`
	Profile        *UserProfile `json:"profile,omitempty"`
}
