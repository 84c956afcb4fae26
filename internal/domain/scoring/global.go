package scoring

import (
	"sort"
	"time"

	"contest_arena/internal/domain/model"
)

type ContestStanding struct {
	Contest *model.Contest
	Entries []model.LeaderboardEntry
}

type GlobalStanding struct {
	UserID         string
	Score          int
	ProblemsSolved int
}

// AggregateGlobal folds every contest that ended strictly before now into one ranking.
// Contests are folded in end-time order and users keep first-seen order on equal scores.
func AggregateGlobal(standings []ContestStanding, now time.Time) []GlobalStanding {
	ordered := make([]ContestStanding, 0, len(standings))
	for _, s := range standings {
		if s.Contest != nil && s.Contest.EndTime.Before(now) {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Contest.EndTime.Before(ordered[j].Contest.EndTime)
	})

	index := make(map[string]int)
	var out []GlobalStanding
	for _, s := range ordered {
		for _, e := range s.Entries {
			i, ok := index[e.UserID]
			if !ok {
				i = len(out)
				index[e.UserID] = i
				out = append(out, GlobalStanding{UserID: e.UserID})
			}
			out[i].Score += e.Score
			out[i].ProblemsSolved += e.ProblemsSolved()
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
