package scoring

import (
	"math"

	"contest_arena/internal/domain/model"
)

type Rules struct {
	// BaseAwards are indexed by contest tier: easy, medium, hard.
	BaseAwards           [3]int
	IncorrectPenalty     int
	MaxPenalizedAttempts int
}

var DefaultRules = Rules{
	BaseAwards:           [3]int{20, 30, 50},
	IncorrectPenalty:     2,
	MaxPenalizedAttempts: 5,
}

// SpeedBonus is floor(100 / (seconds * 1000)). It is uncapped.
// Quotients beyond MaxInt32 are pinned there so the int conversion stays defined.
func SpeedBonus(seconds float64) int {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	q := math.Floor(100 / (seconds * 1000))
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(q)
}

// SlotScore is the contribution of one problem slot; zero until it holds an accepted submission.
func (r Rules) SlotScore(s model.ProblemSlot) int {
	if !s.HasAcceptedSubmission || s.Tier < 0 || s.Tier >= len(r.BaseAwards) {
		return 0
	}
	penalized := s.NumberOfIncorrectSubmissions
	if penalized > r.MaxPenalizedAttempts {
		penalized = r.MaxPenalizedAttempts
	}
	return r.BaseAwards[s.Tier] - r.IncorrectPenalty*penalized + SpeedBonus(s.AcceptedTimeSeconds)
}

// Score recomputes an entry's total from its slots alone.
func (r Rules) Score(e *model.LeaderboardEntry) int {
	total := 0
	for _, s := range e.Slots {
		total += r.SlotScore(s)
	}
	return total
}
