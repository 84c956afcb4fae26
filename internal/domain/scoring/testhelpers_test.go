package scoring

import (
	"time"

	"contest_arena/internal/domain/model"
)

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newContest(participants ...string) *model.Contest {
	return &model.Contest{
		ID:           "c1",
		Title:        "Spring Round",
		StartTime:    t0,
		EndTime:      t0.Add(2 * time.Hour),
		ProblemIDs:   [3]string{"p-easy", "p-medium", "p-hard"},
		Participants: participants,
	}
}

func boundProblem(id, contestID string) *model.Problem {
	cid := contestID
	return &model.Problem{ID: id, ContestID: &cid}
}

func verdict(subID, problemID string, status model.SubmissionStatus, seconds float64) model.Verdict {
	return model.Verdict{SubmissionID: subID, ProblemID: problemID, Status: status, TimeSeconds: seconds}
}
