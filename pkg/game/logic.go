package game

import (
	"fmt"
	"math"

	"github.com/cbodonnell/codeword/pkg/game/constants"
	"github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/words"
)

// Transitions in this file are pure: they take the current match value and
// return a new one, never mutating the input. Low-stakes operations treat
// failed preconditions as a silent no-op and return the input unchanged,
// which keeps out-of-order and duplicate client events harmless. The
// start-game family returns *ErrInvalidAction instead so the initiating
// client gets feedback.

// AddPlayer adds a player to the match. If a player with the same ID is
// already present this is a reconnect: the connection ID and display name
// are updated in place and team and role are preserved. The first player
// to join becomes the host.
func AddPlayer(m types.Match, player types.Player) types.Match {
	next := m.Copy()

	if i := next.FindPlayer(player.ID); i >= 0 {
		next.Players[i].ConnectionID = player.ConnectionID
		next.Players[i].Name = player.Name
		return next
	}

	if next.HostID == "" && len(next.Players) == 0 {
		next.HostID = player.ID
	}
	next.Players = append(next.Players, player)

	return next
}

// RemovePlayer removes a player from the match entirely.
func RemovePlayer(m types.Match, playerID string) types.Match {
	next := m.Copy()
	players := next.Players[:0]
	for _, p := range next.Players {
		if p.ID != playerID {
			players = append(players, p)
		}
	}
	next.Players = players
	return next
}

// UpdatePlayerName changes a player's display name.
func UpdatePlayerName(m types.Match, playerID, name string) types.Match {
	next := m.Copy()
	if i := next.FindPlayer(playerID); i >= 0 {
		next.Players[i].Name = name
	}
	return next
}

// JoinTeam assigns a player to a team, or removes the assignment when team
// is empty. Only legal in the lobby. Changing teams clears the player's
// ready flag and role, and vacates a held spymaster seat.
func JoinTeam(m types.Match, playerID string, team types.Team) types.Match {
	if m.Phase != types.PhaseLobby {
		return m
	}

	i := m.FindPlayer(playerID)
	if i < 0 {
		return m
	}

	next := m.Copy()
	prevTeam := next.Players[i].Team
	next.Players[i].Team = team

	if prevTeam == types.TeamRed && next.RedSpymaster == playerID && team != types.TeamRed {
		next.RedSpymaster = ""
	} else if prevTeam == types.TeamBlue && next.BlueSpymaster == playerID && team != types.TeamBlue {
		next.BlueSpymaster = ""
	}

	if prevTeam != team {
		next.Players[i].Role = ""
		next.ReadyPlayers = removeID(next.ReadyPlayers, playerID)
	}

	return next
}

// ToggleReady flips a player's ready flag. Only legal in the lobby and only
// for players assigned to a team.
func ToggleReady(m types.Match, playerID string) types.Match {
	if m.Phase != types.PhaseLobby {
		return m
	}

	i := m.FindPlayer(playerID)
	if i < 0 || m.Players[i].Team == "" {
		return m
	}

	next := m.Copy()
	if next.IsReady(playerID) {
		next.ReadyPlayers = removeID(next.ReadyPlayers, playerID)
	} else {
		next.ReadyPlayers = append(next.ReadyPlayers, playerID)
	}
	return next
}

// StartGameFromLobby moves the match into spymaster selection. Both teams
// need at least two players and every team-assigned player must be ready.
func StartGameFromLobby(m types.Match) (types.Match, error) {
	if m.Phase != types.PhaseLobby {
		return m, &ErrInvalidAction{Reason: "match is not in the lobby"}
	}

	if len(m.TeamPlayers(types.TeamRed)) < constants.MinTeamSize || len(m.TeamPlayers(types.TeamBlue)) < constants.MinTeamSize {
		return m, &ErrInvalidAction{Reason: fmt.Sprintf("both teams must have at least %d players", constants.MinTeamSize)}
	}

	for _, p := range m.Players {
		if p.Team != "" && !m.IsReady(p.ID) {
			return m, &ErrInvalidAction{Reason: "all players must be ready"}
		}
	}

	next := m.Copy()
	next.Phase = types.PhaseSpymasterSelection
	return next, nil
}

// StartGame moves the match straight into active play, bypassing spymaster
// selection. Both teams need at least two players and a spymaster seat
// already filled. Roles are assigned from the seats.
func StartGame(m types.Match) (types.Match, error) {
	if m.Phase != types.PhaseLobby {
		return m, &ErrInvalidAction{Reason: "match is not in the lobby"}
	}

	if len(m.TeamPlayers(types.TeamRed)) < constants.MinTeamSize || len(m.TeamPlayers(types.TeamBlue)) < constants.MinTeamSize {
		return m, &ErrInvalidAction{Reason: fmt.Sprintf("both teams must have at least %d players", constants.MinTeamSize)}
	}

	if m.RedSpymaster == "" || m.BlueSpymaster == "" {
		return m, &ErrInvalidAction{Reason: "both teams must have a spymaster assigned"}
	}

	next := m.Copy()
	assignRoles(&next)
	next.Phase = types.PhaseActive
	return next, nil
}

// VoteSpymaster records one vote per voter for a spymaster candidate on the
// voter's own team. A candidate is seated as soon as the votes cast for them
// reach a strict majority of the team size. Once both seats are filled the
// match auto-advances to active play.
func VoteSpymaster(m types.Match, voterID, candidateID string) types.Match {
	if m.Phase != types.PhaseSpymasterSelection {
		return m
	}

	vi := m.FindPlayer(voterID)
	ci := m.FindPlayer(candidateID)
	if vi < 0 || ci < 0 {
		return m
	}

	voter := m.Players[vi]
	candidate := m.Players[ci]
	if voter.Team == "" || voter.Team != candidate.Team {
		return m
	}

	next := m.Copy()
	switch voter.Team {
	case types.TeamRed:
		next.SpymasterVotes.Red[voterID] = candidateID
	case types.TeamBlue:
		next.SpymasterVotes.Blue[voterID] = candidateID
	}

	checkAndAssignSpymasters(&next)
	return next
}

// checkAndAssignSpymasters seats any candidate that has reached a majority
// of their team and, once both teams have a spymaster, starts the round.
func checkAndAssignSpymasters(m *types.Match) {
	if m.RedSpymaster == "" {
		m.RedSpymaster = majorityCandidate(m, types.TeamRed, m.SpymasterVotes.Red)
	}
	if m.BlueSpymaster == "" {
		m.BlueSpymaster = majorityCandidate(m, types.TeamBlue, m.SpymasterVotes.Blue)
	}

	if m.RedSpymaster != "" && m.BlueSpymaster != "" {
		assignRoles(m)
		m.Phase = types.PhaseActive
	}
}

// majorityCandidate returns the first candidate (in join order) whose votes
// reach ceil(teamSize/2), or empty if no candidate has a majority yet.
func majorityCandidate(m *types.Match, team types.Team, votes map[string]string) string {
	teamPlayers := m.TeamPlayers(team)
	if len(teamPlayers) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, candidateID := range votes {
		counts[candidateID]++
	}

	needed := int(math.Ceil(float64(len(teamPlayers)) / 2))
	for _, p := range teamPlayers {
		if counts[p.ID] >= needed {
			return p.ID
		}
	}
	return ""
}

// assignRoles gives every team-assigned player the operative role except the
// two seated spymasters. Unassigned players are untouched.
func assignRoles(m *types.Match) {
	for i := range m.Players {
		p := &m.Players[i]
		if p.Team == "" {
			continue
		}
		if (p.Team == types.TeamRed && p.ID == m.RedSpymaster) ||
			(p.Team == types.TeamBlue && p.ID == m.BlueSpymaster) {
			p.Role = types.RoleSpymaster
		} else {
			p.Role = types.RoleOperative
		}
	}
}

// AssignSpymaster seats a player as spymaster directly, bypassing the vote.
// Legal in the lobby or between rounds, and the player must be on the team.
func AssignSpymaster(m types.Match, playerID string, team types.Team) types.Match {
	if m.Phase != types.PhaseLobby && !m.GameOver {
		return m
	}

	i := m.FindPlayer(playerID)
	if i < 0 || m.Players[i].Team != team {
		return m
	}

	next := m.Copy()
	if team == types.TeamRed {
		next.RedSpymaster = playerID
	} else {
		next.BlueSpymaster = playerID
	}
	return next
}

// ToggleSpymaster promotes a team-assigned player to their team's spymaster
// seat, demoting the previous holder, or demotes them if they already hold it.
func ToggleSpymaster(m types.Match, playerID string) types.Match {
	i := m.FindPlayer(playerID)
	if i < 0 || m.Players[i].Team == "" {
		return m
	}

	team := m.Players[i].Team
	current := m.Spymaster(team)

	next := m.Copy()
	if current == playerID {
		if team == types.TeamRed {
			next.RedSpymaster = ""
		} else {
			next.BlueSpymaster = ""
		}
		next.Players[i].Role = types.RoleOperative
		return next
	}

	if team == types.TeamRed {
		next.RedSpymaster = playerID
	} else {
		next.BlueSpymaster = playerID
	}
	next.Players[i].Role = types.RoleSpymaster
	if j := next.FindPlayer(current); j >= 0 {
		next.Players[j].Role = types.RoleOperative
	}
	return next
}

// GiveClue stores the current team's clue and grants number+1 guesses (the
// bonus guess). A second clue in the same turn is ignored. Clue word
// legality against the board is left to the clients.
func GiveClue(m types.Match, word string, number int) types.Match {
	if m.Phase != types.PhaseActive || m.GameOver || m.ClueGivenThisTurn {
		return m
	}

	next := m.Copy()
	next.CurrentClue = &types.Clue{
		Word:   word,
		Number: number,
		Team:   next.CurrentTeam,
	}
	next.ClueGivenThisTurn = true
	next.GuessesRemaining = number + 1
	return next
}

// RevealCard resolves an operative's guess. Revealing an off-team or neutral
// card switches the turn; revealing the assassin ends the match in favor of
// the opposing team; exhausting the granted guesses switches the turn even
// on a correct guess; a team revealing its last card wins.
func RevealCard(m types.Match, cardIndex int) types.Match {
	if m.Phase != types.PhaseActive || m.GameOver || cardIndex < 0 || cardIndex >= len(m.Cards) {
		return m
	}
	if m.Cards[cardIndex].Revealed {
		return m
	}

	next := m.Copy()
	card := &next.Cards[cardIndex]
	card.Revealed = true
	next.GuessesRemaining--

	switchTurn := false
	switch card.Type {
	case types.CardTypeRed:
		next.RedScore++
		next.RedRemaining--
		if next.CurrentTeam == types.TeamBlue {
			switchTurn = true
		}
	case types.CardTypeBlue:
		next.BlueScore++
		next.BlueRemaining--
		if next.CurrentTeam == types.TeamRed {
			switchTurn = true
		}
	case types.CardTypeNeutral:
		switchTurn = true
	case types.CardTypeAssassin:
		next.GameOver = true
		next.Winner = next.CurrentTeam.Opponent()
	}

	if next.GuessesRemaining <= 0 {
		switchTurn = true
	}

	if switchTurn {
		next.CurrentTeam = next.CurrentTeam.Opponent()
		next.CurrentClue = nil
		next.ClueGivenThisTurn = false
		next.GuessesRemaining = 0
	}

	// The assassin never changes the remaining counters, so these checks
	// cannot both fire in the same reveal.
	if next.RedRemaining == 0 {
		next.GameOver = true
		next.Winner = types.TeamRed
	} else if next.BlueRemaining == 0 {
		next.GameOver = true
		next.Winner = types.TeamBlue
	}

	return next
}

// EndTurn passes the turn to the other team and clears the clue state.
func EndTurn(m types.Match) types.Match {
	if m.Phase != types.PhaseActive || m.GameOver {
		return m
	}

	next := m.Copy()
	next.CurrentTeam = next.CurrentTeam.Opponent()
	next.CurrentClue = nil
	next.ClueGivenThisTurn = false
	next.GuessesRemaining = 0
	return next
}

// EndRound starts the next round of a finished match: fresh board, scores
// and counters reset, seats and votes cleared, roles cleared, back to
// spymaster selection. Team assignments are kept. Calling it on a match
// that is not over is a no-op.
func EndRound(m types.Match, source words.Source) (types.Match, error) {
	if !m.GameOver {
		return m, nil
	}
	return redeal(m, source, types.PhaseSpymasterSelection)
}

// ResetToLobby tears a match down to the lobby unconditionally: fresh board,
// scores and counters reset, seats and votes cleared, roles cleared, team
// assignments kept.
func ResetToLobby(m types.Match, source words.Source) (types.Match, error) {
	return redeal(m, source, types.PhaseLobby)
}

func redeal(m types.Match, source words.Source, phase types.Phase) (types.Match, error) {
	startingTeam := RandomTeam()
	cards, err := Deal(source, startingTeam)
	if err != nil {
		return m, fmt.Errorf("failed to deal board: %v", err)
	}

	next := m.Copy()
	for i := range next.Players {
		next.Players[i].Role = ""
	}
	next.Cards = cards
	next.CurrentTeam = startingTeam
	next.StartingTeam = startingTeam
	next.RedScore = 0
	next.BlueScore = 0
	next.RedRemaining = remainingFor(types.TeamRed, startingTeam)
	next.BlueRemaining = remainingFor(types.TeamBlue, startingTeam)
	next.GameOver = false
	next.Winner = ""
	next.Phase = phase
	next.RedSpymaster = ""
	next.BlueSpymaster = ""
	next.ReadyPlayers = []string{}
	next.SpymasterVotes = types.SpymasterVotes{
		Red:  map[string]string{},
		Blue: map[string]string{},
	}
	next.CurrentClue = nil
	next.ClueGivenThisTurn = false
	next.GuessesRemaining = 0
	return next, nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
