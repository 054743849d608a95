package sessions

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cbodonnell/codeword/pkg/game"
	"github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/metrics"
	"github.com/cbodonnell/codeword/pkg/repositories"
	"github.com/cbodonnell/codeword/pkg/repositories/models"
	"github.com/cbodonnell/codeword/pkg/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	lock  sync.Mutex
	saved []*models.EndedMatch
}

func (r *fakeRepository) Close(ctx context.Context) error { return nil }

func (r *fakeRepository) SaveEndedMatch(ctx context.Context, ended *models.EndedMatch) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.saved = append(r.saved, ended)
	return nil
}

func (r *fakeRepository) ListEndedMatches(ctx context.Context, limit int) ([]*models.EndedMatch, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.saved, nil
}

func (r *fakeRepository) GetEndedMatch(ctx context.Context, id string) (*models.EndedMatch, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, e := range r.saved {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, &repositories.ErrNotFound{}
}

func newTestManager(opts NewSessionManagerOptions) *SessionManager {
	if opts.WordSource == nil {
		opts.WordSource = words.NewDefaultSource()
	}
	return NewSessionManager(opts)
}

func TestSessionManager_LazyCreate(t *testing.T) {
	sm := newTestManager(NewSessionManagerOptions{})

	assert.Nil(t, sm.GetMatch("abcd"), "no match before first join")

	match, err := sm.AddPlayer("abcd", types.Player{ID: "p1", Name: "alice"})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "abcd", match.Code)
	assert.Equal(t, "p1", match.HostID)

	assert.NotNil(t, sm.GetMatch("abcd"))
	assert.Len(t, sm.GetAllMatches(), 1)
}

func TestSessionManager_UnknownCodeIsNoOp(t *testing.T) {
	sm := newTestManager(NewSessionManagerOptions{})

	match, err := sm.RevealCard("nope", 0)
	require.NoError(t, err)
	assert.Nil(t, match)

	match, err = sm.EndTurn("nope")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestSessionManager_ReconnectPreservesPlayer(t *testing.T) {
	sm := newTestManager(NewSessionManagerOptions{})

	_, err := sm.AddPlayer("abcd", types.Player{ID: "p1", ConnectionID: "c1", Name: "alice"})
	require.NoError(t, err)
	_, err = sm.JoinTeam("abcd", "p1", types.TeamRed)
	require.NoError(t, err)

	match, err := sm.AddPlayer("abcd", types.Player{ID: "p1", ConnectionID: "c2", Name: "alice"})
	require.NoError(t, err)
	require.Len(t, match.Players, 1)
	assert.Equal(t, "c2", match.Players[0].ConnectionID)
	assert.Equal(t, types.TeamRed, match.Players[0].Team)
}

func TestSessionManager_ValidationFailureLeavesStateUnchanged(t *testing.T) {
	sm := newTestManager(NewSessionManagerOptions{})

	_, err := sm.AddPlayer("abcd", types.Player{ID: "p1", Name: "alice"})
	require.NoError(t, err)

	_, err = sm.StartGameFromLobby("abcd")
	require.Error(t, err)
	assert.True(t, game.IsInvalidAction(err))

	match := sm.GetMatch("abcd")
	require.NotNil(t, match)
	assert.Equal(t, types.PhaseLobby, match.Phase)
}

// Concurrent mutations on one session must serialize: every reveal is
// applied exactly once and the score bookkeeping stays consistent.
func TestSessionManager_SerializesMutationsPerSession(t *testing.T) {
	sm := newTestManager(NewSessionManagerOptions{})

	for i := 0; i < 4; i++ {
		team := types.TeamRed
		if i >= 2 {
			team = types.TeamBlue
		}
		id := fmt.Sprintf("p%d", i)
		_, err := sm.AddPlayer("abcd", types.Player{ID: id, Name: id})
		require.NoError(t, err)
		_, err = sm.JoinTeam("abcd", id, team)
		require.NoError(t, err)
		_, err = sm.ToggleReady("abcd", id)
		require.NoError(t, err)
	}

	_, err := sm.StartGameFromLobby("abcd")
	require.NoError(t, err)
	_, err = sm.VoteSpymaster("abcd", "p0", "p0")
	require.NoError(t, err)
	match, err := sm.VoteSpymaster("abcd", "p2", "p2")
	require.NoError(t, err)
	require.Equal(t, types.PhaseActive, match.Phase)

	redTotal := match.RedScore + match.RedRemaining
	blueTotal := match.BlueScore + match.BlueRemaining

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, err := sm.RevealCard("abcd", index)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final := sm.GetMatch("abcd")
	require.NotNil(t, final)
	assert.Equal(t, redTotal, final.RedScore+final.RedRemaining)
	assert.Equal(t, blueTotal, final.BlueScore+final.BlueRemaining)
	assert.True(t, final.GameOver)
}

func TestSessionManager_CleanupArchivesOldMatches(t *testing.T) {
	repo := &fakeRepository{}
	collector := metrics.NewCollector(metrics.NewCollectorOptions{})
	sm := newTestManager(NewSessionManagerOptions{
		Repository: repo,
		Collector:  collector,
		Retention:  time.Millisecond,
	})

	_, err := sm.AddPlayer("old", types.Player{ID: "p1", Name: "alice"})
	require.NoError(t, err)
	collector.Record("old", 5.0, 2)

	time.Sleep(5 * time.Millisecond)
	sm.Cleanup(context.Background())

	assert.Nil(t, sm.GetMatch("old"), "expired match evicted")
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "old", repo.saved[0].Code)
	assert.Equal(t, 5.0, repo.saved[0].FinalMetrics.AvgJitter)
	assert.Empty(t, collector.Window("old"), "telemetry evicted with the match")
}

func TestSessionManager_Teardown(t *testing.T) {
	repo := &fakeRepository{}
	sm := newTestManager(NewSessionManagerOptions{Repository: repo})

	_, err := sm.AddPlayer("one", types.Player{ID: "p1", Name: "a"})
	require.NoError(t, err)
	_, err = sm.AddPlayer("two", types.Player{ID: "p2", Name: "b"})
	require.NoError(t, err)

	sm.Teardown(context.Background())

	assert.Empty(t, sm.GetAllMatches())
	assert.Len(t, repo.saved, 2)
}
