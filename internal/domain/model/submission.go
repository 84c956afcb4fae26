package model

import "time"

type SubmissionStatus string

const (
	StatusQueued              SubmissionStatus = "queued"
	StatusRunning             SubmissionStatus = "running"
	StatusAccepted            SubmissionStatus = "accepted"
	StatusWrongAnswer         SubmissionStatus = "wrong_answer"
	StatusRuntimeError        SubmissionStatus = "runtime_error"
	StatusTimeLimitExceeded   SubmissionStatus = "time_limit_exceeded"
	StatusMemoryLimitExceeded SubmissionStatus = "memory_limit_exceeded"
	StatusCompileError        SubmissionStatus = "compile_error"
	StatusInternalError       SubmissionStatus = "internal_error"
)

// IsTerminal is true for every status the judge will not move out of.
func (s SubmissionStatus) IsTerminal() bool {
	return s != StatusQueued && s != StatusRunning && s != ""
}

func (s SubmissionStatus) IsAccepted() bool {
	return s == StatusAccepted
}

type UserActivity struct {
	KeyStrokes  int `json:"key_strokes"`
	FocusEvents int `json:"focus_events"`
}

type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ProblemID       string           `json:"problem_id"`
	Language        string           `json:"language"`
	LanguageID      int              `json:"language_id"`
	Code            string           `json:"code,omitempty"`
	JudgeToken      string           `json:"-"`
	Status          SubmissionStatus `json:"status"`
	StatusCode      int              `json:"status_code"`
	StatusText      string           `json:"status_text,omitempty"`
	TimeSeconds     *float64         `json:"time,omitempty"`
	MemoryKb        *int             `json:"memory,omitempty"`
	PassedTestCases string           `json:"number_of_passed_test_cases,omitempty"`
	IsSimilar       bool             `json:"is_similar"`
	Activity        UserActivity     `json:"user_activity"`
	IsRemoved       bool             `json:"is_removed"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Verdict is one refresh of a submission's grading state.
type Verdict struct {
	SubmissionID string
	ProblemID    string
	Status       SubmissionStatus
	TimeSeconds  float64
}

func (s *Submission) Verdict() Verdict {
	v := Verdict{SubmissionID: s.ID, ProblemID: s.ProblemID, Status: s.Status}
	if s.TimeSeconds != nil {
		v.TimeSeconds = *s.TimeSeconds
	}
	return v
}
