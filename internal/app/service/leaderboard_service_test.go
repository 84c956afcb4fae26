package service

import (
	"context"
	"testing"
	"time"

	"contest_arena/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalLeaderboard(t *testing.T) {
	ctx := context.Background()
	a := newArena(t, t0.Add(time.Hour))

	_, err := a.verdictSvc.ApplyVerdict(ctx, "alice", v("a1", "p-easy", model.StatusAccepted, 0.5))
	require.NoError(t, err)
	_, err = a.verdictSvc.ApplyVerdict(ctx, "bob", v("b1", "p-medium", model.StatusAccepted, 0.5))
	require.NoError(t, err)

	// c1 is still running: nothing counts yet.
	entries, err := a.leaderboardSvc.Global(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// At the exact end instant the contest is closed but not yet strictly in the past.
	a.leaderboardSvc.now = fixedClock(t0.Add(2 * time.Hour))
	entries, err = a.leaderboardSvc.Global(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	a.leaderboardSvc.now = fixedClock(t0.Add(3 * time.Hour))
	entries, err = a.leaderboardSvc.Global(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "bob", entries[0].UserID)
	assert.Equal(t, 30, entries[0].Score)
	assert.Equal(t, 1, entries[0].Rank)
	require.NotNil(t, entries[0].Profile)
	assert.Equal(t, "Bob", entries[0].Profile.DisplayName)

	assert.Equal(t, "alice", entries[1].UserID)
	assert.Equal(t, 20, entries[1].Score)
	assert.Equal(t, 1, entries[1].ProblemsSolved)
}
