// Package scoring holds the contest scoring rules: who may score, how a verdict
// changes a leaderboard entry, and how ended contests fold into the global ranking.
package scoring

import (
	"time"

	"contest_arena/internal/domain/model"
)

type DenyReason string

const (
	Admitted          DenyReason = ""
	DenyNotBound      DenyReason = "problem is not contest-bound"
	DenyNoContest     DenyReason = "owning contest not found"
	DenyNotStarted    DenyReason = "contest has not started"
	DenyEnded         DenyReason = "contest has ended"
	DenyNotRegistered DenyReason = "user is not a registered participant"
)

// Admit decides whether a verdict for problem by userID may affect contest scoring at now.
// A nil contest, or one that does not own the problem, is treated as removed.
func Admit(problem *model.Problem, contest *model.Contest, userID string, now time.Time) (bool, DenyReason) {
	if problem == nil || !problem.IsContestBound() {
		return false, DenyNotBound
	}
	if contest == nil || contest.ID != *problem.ContestID {
		return false, DenyNoContest
	}
	if contest.HasEnded(now) {
		return false, DenyEnded
	}
	if !contest.HasStarted(now) {
		return false, DenyNotStarted
	}
	if !contest.IsParticipant(userID) {
		return false, DenyNotRegistered
	}
	return true, Admitted
}

func Admissible(problem *model.Problem, contest *model.Contest, userID string, now time.Time) bool {
	ok, _ := Admit(problem, contest, userID, now)
	return ok
}
