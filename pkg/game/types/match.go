package types

// SpymasterVotes maps voter ID to candidate ID per team.
type SpymasterVotes struct {
	Red  map[string]string `json:"red"`
	Blue map[string]string `json:"blue"`
}

// Match is the authoritative state of one game session. Values of this
// type are treated as immutable: transitions copy before changing anything.
type Match struct {
	Code              string         `json:"code"`
	Players           []Player       `json:"players"`
	Cards             []Card         `json:"cards"`
	CurrentTeam       Team           `json:"currentTeam"`
	RedScore          int            `json:"redScore"`
	BlueScore         int            `json:"blueScore"`
	RedRemaining      int            `json:"redRemaining"`
	BlueRemaining     int            `json:"blueRemaining"`
	GameOver          bool           `json:"gameOver"`
	Winner            Team           `json:"winner,omitempty"`
	StartingTeam      Team           `json:"startingTeam"`
	CreatedAt         int64          `json:"createdAt"`
	Phase             Phase          `json:"phase"`
	RedSpymaster      string         `json:"redSpymaster,omitempty"`
	BlueSpymaster     string         `json:"blueSpymaster,omitempty"`
	HostID            string         `json:"hostId,omitempty"`
	ReadyPlayers      []string       `json:"readyPlayers"`
	SpymasterVotes    SpymasterVotes `json:"spymasterVotes"`
	CurrentClue       *Clue          `json:"currentClue,omitempty"`
	ClueGivenThisTurn bool           `json:"clueGivenThisTurn"`
	GuessesRemaining  int            `json:"guessesRemaining"`
}

// Copy returns a deep copy of the match. Transitions work on a copy so the
// caller's value is never mutated.
func (m Match) Copy() Match {
	c := m
	c.Players = make([]Player, len(m.Players))
	copy(c.Players, m.Players)
	c.Cards = make([]Card, len(m.Cards))
	copy(c.Cards, m.Cards)
	c.ReadyPlayers = make([]string, len(m.ReadyPlayers))
	copy(c.ReadyPlayers, m.ReadyPlayers)
	c.SpymasterVotes = SpymasterVotes{
		Red:  make(map[string]string, len(m.SpymasterVotes.Red)),
		Blue: make(map[string]string, len(m.SpymasterVotes.Blue)),
	}
	for k, v := range m.SpymasterVotes.Red {
		c.SpymasterVotes.Red[k] = v
	}
	for k, v := range m.SpymasterVotes.Blue {
		c.SpymasterVotes.Blue[k] = v
	}
	if m.CurrentClue != nil {
		clue := *m.CurrentClue
		c.CurrentClue = &clue
	}
	return c
}

// FindPlayer returns the index of the player with the given ID, or -1.
func (m *Match) FindPlayer(playerID string) int {
	for i := range m.Players {
		if m.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// TeamPlayers returns the players currently assigned to a team.
func (m *Match) TeamPlayers(team Team) []Player {
	var players []Player
	for _, p := range m.Players {
		if p.Team == team {
			players = append(players, p)
		}
	}
	return players
}

// IsReady reports whether the player has toggled ready.
func (m *Match) IsReady(playerID string) bool {
	for _, id := range m.ReadyPlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// Spymaster returns the spymaster ID for a team, or empty.
func (m *Match) Spymaster(team Team) string {
	if team == TeamRed {
		return m.RedSpymaster
	}
	return m.BlueSpymaster
}

// RevealedCount returns how many cards have been revealed this round.
func (m *Match) RevealedCount() int {
	count := 0
	for _, card := range m.Cards {
		if card.Revealed {
			count++
		}
	}
	return count
}
