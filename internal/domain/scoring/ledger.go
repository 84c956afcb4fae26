package scoring

import (
	"math"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
)

var (
	ErrInvalidExecutionTime = common.Errorf("accepted verdict requires a positive execution time: %w", common.ErrValidation)
	ErrSlotNotFound         = common.Errorf("problem has no slot in leaderboard entry: %w", common.ErrInternalServer)
)

// Ledger applies verdicts to leaderboard entries. It holds no state of its own;
// callers load and persist entries and serialize calls per (contest, user).
type Ledger struct {
	rules Rules
}

func NewLedger(rules Rules) *Ledger {
	return &Ledger{rules: rules}
}

func (l *Ledger) Rules() Rules {
	return l.rules
}

// NewEntry builds the empty entry created on a user's first admitted verdict.
func (l *Ledger) NewEntry(contest *model.Contest, userID string, now time.Time) *model.LeaderboardEntry {
	e := &model.LeaderboardEntry{
		ContestID: contest.ID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, pid := range contest.ProblemIDs {
		e.Slots[i] = model.ProblemSlot{ProblemID: pid, Tier: i}
	}
	return e
}

// Apply folds one verdict into entry and reports whether the entry changed.
// Running and queued verdicts never change slots. Applying the same verdict twice is a no-op.
func (l *Ledger) Apply(entry *model.LeaderboardEntry, v model.Verdict) (bool, error) {
	slot := entry.Slot(v.ProblemID)
	if slot == nil {
		return false, ErrSlotNotFound
	}

	switch {
	case v.Status.IsAccepted():
		if v.TimeSeconds <= 0 || math.IsNaN(v.TimeSeconds) || math.IsInf(v.TimeSeconds, 0) {
			return false, ErrInvalidExecutionTime
		}
		changed := false
		if !slot.HasAcceptedSubmission {
			id := v.SubmissionID
			slot.HasAcceptedSubmission = true
			slot.SubmissionID = &id
			slot.AcceptedTimeSeconds = v.TimeSeconds
			changed = true
		} else if v.TimeSeconds < slot.AcceptedTimeSeconds {
			// Faster solution supersedes; incorrect count carries over.
			id := v.SubmissionID
			slot.SubmissionID = &id
			slot.AcceptedTimeSeconds = v.TimeSeconds
			changed = true
		}
		score := l.rules.Score(entry)
		if score != entry.Score {
			entry.Score = score
			changed = true
		}
		return changed, nil

	case v.Status.IsTerminal():
		if slot.HasAcceptedSubmission || containsID(slot.CountedIncorrectSubmissionIDs, v.SubmissionID) {
			return false, nil
		}
		slot.NumberOfIncorrectSubmissions++
		slot.CountedIncorrectSubmissionIDs = append(slot.CountedIncorrectSubmissionIDs, v.SubmissionID)
		return true, nil
	}

	return false, nil
}

// Rescore replaces the stored score with one recomputed from slot state.
func (l *Ledger) Rescore(entry *model.LeaderboardEntry) bool {
	score := l.rules.Score(entry)
	if score == entry.Score {
		return false
	}
	entry.Score = score
	return true
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
