package types

// Team identifies one of the two competing teams.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Role is a player's function within their team during a round.
type Role string

const (
	RoleSpymaster Role = "spymaster"
	RoleOperative Role = "operative"
)

// CardType is the hidden identity of a card.
type CardType string

const (
	CardTypeRed      CardType = "red"
	CardTypeBlue     CardType = "blue"
	CardTypeNeutral  CardType = "neutral"
	CardTypeAssassin CardType = "assassin"
)

// Phase is the lifecycle stage of a match.
// PhaseFinished is declared for completeness but no transition currently
// enters it: a won round keeps PhaseActive with GameOver set.
type Phase string

const (
	PhaseLobby              Phase = "lobby"
	PhaseSpymasterSelection Phase = "spymaster-selection"
	PhaseActive             Phase = "active"
	PhaseFinished           Phase = "finished"
)

// Card is a single board card. Word and Type are fixed once dealt;
// Revealed flips false to true exactly once.
type Card struct {
	Word     string   `json:"word"`
	Type     CardType `json:"type"`
	Revealed bool     `json:"revealed"`
}

// Player is a participant in a match. ID is client-generated and stable
// across reconnects; ConnectionID is replaced on every reconnect.
type Player struct {
	ID           string `json:"id"`
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	Team         Team   `json:"team,omitempty"`
	Role         Role   `json:"role,omitempty"`
}

// Clue is a spymaster's hint for the current turn.
type Clue struct {
	Word   string `json:"word"`
	Number int    `json:"number"`
	Team   Team   `json:"team"`
}
