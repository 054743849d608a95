package messages

import (
	"encoding/json"
	"fmt"

	gametypes "github.com/cbodonnell/codeword/pkg/game/types"
)

// Client event types
const (
	EventTypeJoin               = "join"
	EventTypeJoinTeam           = "join-team"
	EventTypeToggleReady        = "toggle-ready"
	EventTypeVoteSpymaster      = "vote-spymaster"
	EventTypeAssignSpymaster    = "assign-spymaster"
	EventTypeToggleSpymaster    = "toggle-spymaster"
	EventTypeStartGame          = "start-game"
	EventTypeStartGameFromLobby = "start-game-from-lobby"
	EventTypeGiveClue           = "give-clue"
	EventTypeRevealCard         = "reveal-card"
	EventTypeEndTurn            = "end-turn"
	EventTypeEndRound           = "end-round"
	EventTypeResetToLobby       = "reset-to-lobby"
	EventTypeUpdatePlayerName   = "update-player-name"
	EventTypeChatMessage        = "chat-message"
)

// Server event types
const (
	EventTypeGameState    = "game-state"
	EventTypePlayerJoined = "player-joined"
	EventTypeError        = "error"
)

// Event is the envelope for everything on the wire, both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event with a marshaled payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", eventType, err)
	}
	return &Event{
		Type:    eventType,
		Payload: b,
	}, nil
}

// SessionPayload is the payload for events that carry only a session code.
type SessionPayload struct {
	SessionCode string `json:"sessionCode"`
}

type JoinPayload struct {
	SessionCode string `json:"sessionCode"`
	PlayerName  string `json:"playerName"`
	PlayerID    string `json:"playerId"`
}

type JoinTeamPayload struct {
	SessionCode string `json:"sessionCode"`
	// Team is empty to leave the current team.
	Team gametypes.Team `json:"team,omitempty"`
}

type VoteSpymasterPayload struct {
	SessionCode string `json:"sessionCode"`
	CandidateID string `json:"candidateId"`
}

type AssignSpymasterPayload struct {
	SessionCode string         `json:"sessionCode"`
	Team        gametypes.Team `json:"team"`
}

type GiveCluePayload struct {
	SessionCode string `json:"sessionCode"`
	Clue        struct {
		Word   string `json:"word"`
		Number int    `json:"number"`
	} `json:"clue"`
}

type RevealCardPayload struct {
	SessionCode string `json:"sessionCode"`
	CardIndex   int    `json:"cardIndex"`
}

type UpdatePlayerNamePayload struct {
	SessionCode string `json:"sessionCode"`
	PlayerID    string `json:"playerId"`
	NewName     string `json:"newName"`
}

type ChatMessagePayload struct {
	SessionCode string          `json:"sessionCode"`
	Message     json.RawMessage `json:"message"`
}

// PlayerJoinedPayload notifies a session that a player joined or reconnected.
type PlayerJoinedPayload struct {
	Player      *gametypes.Player `json:"player"`
	Game        *gametypes.Match  `json:"game"`
	IsReconnect bool              `json:"isReconnect"`
}

// ErrorPayload is sent to the initiating client when a validated action
// is refused.
type ErrorPayload struct {
	Message string `json:"message"`
}
