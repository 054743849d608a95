package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/cbodonnell/codeword/pkg/game"
	"github.com/cbodonnell/codeword/pkg/game/constants"
	"github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/log"
	"github.com/cbodonnell/codeword/pkg/metrics"
	"github.com/cbodonnell/codeword/pkg/repositories"
	"github.com/cbodonnell/codeword/pkg/repositories/models"
	"github.com/cbodonnell/codeword/pkg/words"
	"github.com/google/uuid"
)

// session pairs a match with its own mutex. Every mutation of a match runs
// under this lock, so per-session transitions apply strictly one at a time
// and in arrival order. This is the load-bearing correctness property of
// the whole server.
type session struct {
	lock  sync.Mutex
	match types.Match
}

// SessionManager owns the table of live matches keyed by session code. It
// is the sole writer of match state: all mutations go through it, and all
// reads see a decided, stored value (a deep copy), never a half-applied
// transition.
type SessionManager struct {
	lock       sync.RWMutex
	sessions   map[string]*session
	source     words.Source
	repository repositories.Repository
	collector  *metrics.Collector
	retention  time.Duration
}

// NewSessionManagerOptions contains options for creating a new SessionManager.
type NewSessionManagerOptions struct {
	WordSource words.Source
	// Repository receives archived matches. Optional; eviction still
	// happens without one.
	Repository repositories.Repository
	// Collector supplies final telemetry figures at archive time. Optional.
	Collector *metrics.Collector
	// Retention is how long matches are kept after creation.
	// Defaults to constants.MatchRetention.
	Retention time.Duration
}

func NewSessionManager(opts NewSessionManagerOptions) *SessionManager {
	retention := opts.Retention
	if retention == 0 {
		retention = constants.MatchRetention
	}
	return &SessionManager{
		sessions:   make(map[string]*session),
		source:     opts.WordSource,
		repository: opts.Repository,
		collector:  opts.Collector,
		retention:  retention,
	}
}

// GetMatch returns a copy of the match for the code, or nil if absent.
func (sm *SessionManager) GetMatch(code string) *types.Match {
	sm.lock.RLock()
	s, ok := sm.sessions[code]
	sm.lock.RUnlock()
	if !ok {
		return nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	match := s.match.Copy()
	return &match
}

// GetAllMatches returns copies of every live match.
func (sm *SessionManager) GetAllMatches() []*types.Match {
	sm.lock.RLock()
	all := make([]*session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		all = append(all, s)
	}
	sm.lock.RUnlock()

	matches := make([]*types.Match, 0, len(all))
	for _, s := range all {
		s.lock.Lock()
		match := s.match.Copy()
		s.lock.Unlock()
		matches = append(matches, &match)
	}
	return matches
}

// GetOrCreateMatch returns the match for the code, lazily creating it with
// a freshly dealt board when absent.
func (sm *SessionManager) GetOrCreateMatch(code string) (*types.Match, error) {
	s, err := sm.getOrCreateSession(code)
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	match := s.match.Copy()
	return &match, nil
}

func (sm *SessionManager) getOrCreateSession(code string) (*session, error) {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	if s, ok := sm.sessions[code]; ok {
		return s, nil
	}

	match, err := game.NewMatch(code, sm.source)
	if err != nil {
		return nil, err
	}
	s := &session{match: match}
	sm.sessions[code] = s
	log.Debug("Created match %s", code)
	return s, nil
}

// mutate applies a pure transition to the stored match under the session
// lock and stores the result. Returns nil for an unknown code.
func (sm *SessionManager) mutate(code string, fn func(types.Match) (types.Match, error)) (*types.Match, error) {
	sm.lock.RLock()
	s, ok := sm.sessions[code]
	sm.lock.RUnlock()
	if !ok {
		return nil, nil
	}

	return sm.mutateSession(s, fn)
}

func (sm *SessionManager) mutateSession(s *session, fn func(types.Match) (types.Match, error)) (*types.Match, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	next, err := fn(s.match)
	if err != nil {
		return nil, err
	}
	s.match = next

	match := next.Copy()
	return &match, nil
}

// AddPlayer adds or reconnects a player, lazily creating the match.
func (sm *SessionManager) AddPlayer(code string, player types.Player) (*types.Match, error) {
	s, err := sm.getOrCreateSession(code)
	if err != nil {
		return nil, err
	}
	return sm.mutateSession(s, func(m types.Match) (types.Match, error) {
		return game.AddPlayer(m, player), nil
	})
}

// RemovePlayer removes a player from the match entirely.
func (sm *SessionManager) RemovePlayer(code, playerID string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.RemovePlayer(m, playerID), nil
	})
}

// UpdatePlayerName changes a player's display name.
func (sm *SessionManager) UpdatePlayerName(code, playerID, name string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.UpdatePlayerName(m, playerID, name), nil
	})
}

// JoinTeam assigns a player to a team (or clears it when team is empty).
func (sm *SessionManager) JoinTeam(code, playerID string, team types.Team) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.JoinTeam(m, playerID, team), nil
	})
}

// ToggleReady flips a player's ready flag.
func (sm *SessionManager) ToggleReady(code, playerID string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.ToggleReady(m, playerID), nil
	})
}

// VoteSpymaster records a spymaster vote.
func (sm *SessionManager) VoteSpymaster(code, voterID, candidateID string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.VoteSpymaster(m, voterID, candidateID), nil
	})
}

// AssignSpymaster seats a spymaster directly, bypassing the vote.
func (sm *SessionManager) AssignSpymaster(code, playerID string, team types.Team) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.AssignSpymaster(m, playerID, team), nil
	})
}

// ToggleSpymaster promotes or demotes a player on their team's seat.
func (sm *SessionManager) ToggleSpymaster(code, playerID string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.ToggleSpymaster(m, playerID), nil
	})
}

// StartGame starts active play directly from the lobby.
func (sm *SessionManager) StartGame(code string) (*types.Match, error) {
	return sm.mutate(code, game.StartGame)
}

// StartGameFromLobby advances the lobby to spymaster selection.
func (sm *SessionManager) StartGameFromLobby(code string) (*types.Match, error) {
	return sm.mutate(code, game.StartGameFromLobby)
}

// GiveClue stores the current team's clue.
func (sm *SessionManager) GiveClue(code, word string, number int) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.GiveClue(m, word, number), nil
	})
}

// RevealCard resolves a guess.
func (sm *SessionManager) RevealCard(code string, cardIndex int) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.RevealCard(m, cardIndex), nil
	})
}

// EndTurn passes the turn to the other team.
func (sm *SessionManager) EndTurn(code string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.EndTurn(m), nil
	})
}

// EndRound deals the next round of a finished match.
func (sm *SessionManager) EndRound(code string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.EndRound(m, sm.source)
	})
}

// ResetToLobby tears the match down to the lobby.
func (sm *SessionManager) ResetToLobby(code string) (*types.Match, error) {
	return sm.mutate(code, func(m types.Match) (types.Match, error) {
		return game.ResetToLobby(m, sm.source)
	})
}

// DeleteMatch removes a match from the registry without archiving it.
func (sm *SessionManager) DeleteMatch(code string) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	delete(sm.sessions, code)
}

// Cleanup archives and evicts matches older than the retention window.
func (sm *SessionManager) Cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-sm.retention).UnixMilli()

	for _, match := range sm.GetAllMatches() {
		if match.CreatedAt > cutoff {
			continue
		}
		sm.archive(ctx, match)
		sm.DeleteMatch(match.Code)
		log.Info("Evicted match %s after retention window", match.Code)
	}
}

// Teardown archives every live match and empties the registry. Called at
// process shutdown.
func (sm *SessionManager) Teardown(ctx context.Context) {
	for _, match := range sm.GetAllMatches() {
		sm.archive(ctx, match)
		sm.DeleteMatch(match.Code)
	}
}

// archive hands the match to the repository along with final telemetry
// figures. Failures are logged and never propagate: archival is off the
// match-processing path.
func (sm *SessionManager) archive(ctx context.Context, match *types.Match) {
	defer func() {
		if sm.collector != nil {
			sm.collector.Remove(match.Code)
		}
	}()

	if sm.repository == nil {
		return
	}

	now := time.Now().UnixMilli()
	ended := &models.EndedMatch{
		ID:      uuid.NewString(),
		Code:    match.Code,
		EndedAt: now,
		State:   *match,
		FinalMetrics: models.FinalMetrics{
			DurationMillis: now - match.CreatedAt,
			RedScore:       match.RedScore,
			BlueScore:      match.BlueScore,
			Winner:         match.Winner,
		},
	}
	if sm.collector != nil {
		if agg := sm.collector.Aggregate(match.Code); agg != nil {
			ended.FinalMetrics.AvgJitter = agg.AvgJitter
			ended.FinalMetrics.AvgParticipants = agg.AvgParticipants
		}
	}

	if err := sm.repository.SaveEndedMatch(ctx, ended); err != nil {
		log.Error("Failed to archive match %s: %v", match.Code, err)
	}
}
