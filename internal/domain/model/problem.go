package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "easy"
	DifficultyMedium ProblemDifficulty = "medium"
	DifficultyHard   ProblemDifficulty = "hard"
)

// Tier returns the slot position of the difficulty inside a contest (0, 1, 2) or -1 if unknown.
func (d ProblemDifficulty) Tier() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	}
	return -1
}

func (d ProblemDifficulty) Valid() bool {
	return d.Tier() >= 0
}

type ProblemStatistics struct {
	TotalSubmissions         int `json:"total_submissions"`
	TotalAcceptedSubmissions int `json:"total_accepted_submissions"`
	TotalRejectedSubmissions int `json:"total_rejected_submissions"`
}

type Problem struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Stdin       string            `json:"stdin,omitempty"`
	Stdout      string            `json:"stdout,omitempty"` // Expected output; admin only view
	Difficulty  ProblemDifficulty `json:"difficulty"`
	Tags        []string          `json:"tags"`
	ContestID   *string           `json:"contest_id,omitempty"`
	Statistics  ProblemStatistics `json:"statistics"`
	CreatedByID *string           `json:"created_by_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Loaded with the problem when it is contest-bound.
	ContestEndTime *time.Time `json:"-"`
	// Derived on read from the owning contest.
	IsVisible bool `json:"is_visible"`
}

// VisibleAt reports whether the problem is public: standalone, or its contest has ended.
func (p *Problem) VisibleAt(now time.Time) bool {
	if !p.IsContestBound() {
		return true
	}
	return p.ContestEndTime != nil && !now.Before(*p.ContestEndTime)
}

func (p *Problem) IsContestBound() bool {
	return p.ContestID != nil && *p.ContestID != ""
}
