package model

import "time"

type ContestPhase string

const (
	ContestUpcoming ContestPhase = "upcoming"
	ContestRunning  ContestPhase = "running"
	ContestEnded    ContestPhase = "ended"
)

type Contest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	// Ordered easy, medium, hard.
	ProblemIDs        [3]string `json:"problem_ids"`
	Participants      []string  `json:"participants,omitempty"`
	TotalParticipants int       `json:"total_participants"`
	CreatedByID       *string   `json:"created_by_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (c *Contest) HasStarted(now time.Time) bool {
	return !now.Before(c.StartTime)
}

func (c *Contest) HasEnded(now time.Time) bool {
	return !now.Before(c.EndTime)
}

// IsOpen reports start <= now < end.
func (c *Contest) IsOpen(now time.Time) bool {
	return c.HasStarted(now) && !c.HasEnded(now)
}

func (c *Contest) Phase(now time.Time) ContestPhase {
	switch {
	case !c.HasStarted(now):
		return ContestUpcoming
	case c.HasEnded(now):
		return ContestEnded
	default:
		return ContestRunning
	}
}

func (c *Contest) IsParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// TierOf returns the slot index bound to problemID, or -1.
func (c *Contest) TierOf(problemID string) int {
	for i, id := range c.ProblemIDs {
		if id == problemID {
			return i
		}
	}
	return -1
}

// ParticipantResult summarizes one participant's submissions to a contest's problems.
type ParticipantResult struct {
	UserID             string `json:"user_id"`
	Username           string `json:"username"`
	TotalSubmissions   int    `json:"total_submissions"`
	PassedSubmissions  int    `json:"passed_submissions"`
	FailedSubmissions  int    `json:"failed_submissions"`
	SimilarSubmissions bool   `json:"similar_submissions"`
	Score              int    `json:"score"`
}
