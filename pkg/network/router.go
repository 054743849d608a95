package network

import (
	"encoding/json"

	"github.com/cbodonnell/codeword/pkg/game"
	gametypes "github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/log"
	"github.com/cbodonnell/codeword/pkg/messages"
	"github.com/cbodonnell/codeword/pkg/sessions"
)

type eventHandler func(client *Client, payload json.RawMessage)

// EventRouter maps client event types to handlers. Every handler loads the
// targeted session through the SessionManager, which serializes mutations
// per session, so handlers never race on match state. Each successful
// mutation broadcasts the full match value to the whole session: clients
// reconcile against complete snapshots, never deltas.
type EventRouter struct {
	sessionManager *sessions.SessionManager
	clientManager  *ClientManager
	handlers       map[string]eventHandler
}

// NewEventRouterOptions contains options for creating a new EventRouter.
type NewEventRouterOptions struct {
	SessionManager *sessions.SessionManager
	ClientManager  *ClientManager
}

func NewEventRouter(opts NewEventRouterOptions) *EventRouter {
	r := &EventRouter{
		sessionManager: opts.SessionManager,
		clientManager:  opts.ClientManager,
	}
	r.handlers = map[string]eventHandler{
		messages.EventTypeJoin:               r.handleJoin,
		messages.EventTypeJoinTeam:           r.handleJoinTeam,
		messages.EventTypeToggleReady:        r.handleToggleReady,
		messages.EventTypeVoteSpymaster:      r.handleVoteSpymaster,
		messages.EventTypeAssignSpymaster:    r.handleAssignSpymaster,
		messages.EventTypeToggleSpymaster:    r.handleToggleSpymaster,
		messages.EventTypeStartGame:          r.handleStartGame,
		messages.EventTypeStartGameFromLobby: r.handleStartGameFromLobby,
		messages.EventTypeGiveClue:           r.handleGiveClue,
		messages.EventTypeRevealCard:         r.handleRevealCard,
		messages.EventTypeEndTurn:            r.handleEndTurn,
		messages.EventTypeEndRound:           r.handleEndRound,
		messages.EventTypeResetToLobby:       r.handleResetToLobby,
		messages.EventTypeUpdatePlayerName:   r.handleUpdatePlayerName,
		messages.EventTypeChatMessage:        r.handleChatMessage,
	}
	return r
}

// Route dispatches one client event to its handler.
func (r *EventRouter) Route(client *Client, event *messages.Event) {
	handler, ok := r.handlers[event.Type]
	if !ok {
		log.Warn("Unhandled event type %s from client %s", event.Type, client.ID)
		return
	}
	handler(client, event.Payload)
}

// broadcastState pushes the full match state to every client in the
// session. A nil match (unknown session or silent no-op path) is skipped.
func (r *EventRouter) broadcastState(sessionCode string, match *gametypes.Match) {
	if match == nil {
		return
	}
	event, err := messages.NewEvent(messages.EventTypeGameState, match)
	if err != nil {
		log.Error("Failed to build game-state event: %v", err)
		return
	}
	r.clientManager.Broadcast(sessionCode, event)
}

// sendError reports a refused action to the initiating client only.
func (r *EventRouter) sendError(client *Client, message string) {
	event, err := messages.NewEvent(messages.EventTypeError, &messages.ErrorPayload{Message: message})
	if err != nil {
		log.Error("Failed to build error event: %v", err)
		return
	}
	if err := client.WriteEvent(event); err != nil {
		log.Error("Failed to write error event to client %s: %v", client.ID, err)
	}
}

func decode(payload json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		log.Warn("Failed to decode event payload: %v", err)
		return false
	}
	return true
}

func (r *EventRouter) handleJoin(client *Client, payload json.RawMessage) {
	var p messages.JoinPayload
	if !decode(payload, &p) {
		return
	}

	log.Debug("Player %s (%s) joining session %s", p.PlayerName, p.PlayerID, p.SessionCode)

	existing := r.sessionManager.GetMatch(p.SessionCode)
	isReconnect := existing != nil && existing.FindPlayer(p.PlayerID) >= 0

	r.clientManager.SetSession(client.ID, p.SessionCode, p.PlayerID)

	match, err := r.sessionManager.AddPlayer(p.SessionCode, gametypes.Player{
		ID:           p.PlayerID,
		ConnectionID: client.ID,
		Name:         p.PlayerName,
	})
	if err != nil {
		log.Error("Failed to add player to session %s: %v", p.SessionCode, err)
		r.sendError(client, "failed to join session")
		return
	}

	stateEvent, err := messages.NewEvent(messages.EventTypeGameState, match)
	if err != nil {
		log.Error("Failed to build game-state event: %v", err)
		return
	}
	if err := client.WriteEvent(stateEvent); err != nil {
		log.Error("Failed to write game-state to client %s: %v", client.ID, err)
	}

	var joined *gametypes.Player
	if i := match.FindPlayer(p.PlayerID); i >= 0 {
		joined = &match.Players[i]
	}
	joinedEvent, err := messages.NewEvent(messages.EventTypePlayerJoined, &messages.PlayerJoinedPayload{
		Player:      joined,
		Game:        match,
		IsReconnect: isReconnect,
	})
	if err != nil {
		log.Error("Failed to build player-joined event: %v", err)
		return
	}
	r.clientManager.Broadcast(p.SessionCode, joinedEvent)
}

func (r *EventRouter) handleJoinTeam(client *Client, payload json.RawMessage) {
	var p messages.JoinTeamPayload
	if !decode(payload, &p) || client.PlayerID == "" {
		return
	}

	match, err := r.sessionManager.JoinTeam(p.SessionCode, client.PlayerID, p.Team)
	if err != nil {
		log.Error("Failed to join team in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleToggleReady(client *Client, payload json.RawMessage) {
	var p messages.SessionPayload
	if !decode(payload, &p) || client.PlayerID == "" {
		return
	}

	match, err := r.sessionManager.ToggleReady(p.SessionCode, client.PlayerID)
	if err != nil {
		log.Error("Failed to toggle ready in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleVoteSpymaster(client *Client, payload json.RawMessage) {
	var p messages.VoteSpymasterPayload
	if !decode(payload, &p) || client.PlayerID == "" {
		return
	}

	match, err := r.sessionManager.VoteSpymaster(p.SessionCode, client.PlayerID, p.CandidateID)
	if err != nil {
		log.Error("Failed to vote spymaster in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleAssignSpymaster(client *Client, payload json.RawMessage) {
	var p messages.AssignSpymasterPayload
	if !decode(payload, &p) || client.PlayerID == "" {
		return
	}

	match, err := r.sessionManager.AssignSpymaster(p.SessionCode, client.PlayerID, p.Team)
	if err != nil {
		log.Error("Failed to assign spymaster in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleToggleSpymaster(client *Client, payload json.RawMessage) {
	var p messages.SessionPayload
	if !decode(payload, &p) || client.PlayerID == "" {
		return
	}

	match, err := r.sessionManager.ToggleSpymaster(p.SessionCode, client.PlayerID)
	if err != nil {
		log.Error("Failed to toggle spymaster in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleStartGame(client *Client, payload json.RawMessage) {
	var p messages.SessionPayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.StartGame(p.SessionCode)
	if err != nil {
		if game.IsInvalidAction(err) {
			r.sendError(client, err.Error())
			return
		}
		log.Error("Failed to start game in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleStartGameFromLobby(client *Client, payload json.RawMessage) {
	var p messages.SessionPayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.StartGameFromLobby(p.SessionCode)
	if err != nil {
		if game.IsInvalidAction(err) {
			r.sendError(client, err.Error())
			return
		}
		log.Error("Failed to start from lobby in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleGiveClue(client *Client, payload json.RawMessage) {
	var p messages.GiveCluePayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.GiveClue(p.SessionCode, p.Clue.Word, p.Clue.Number)
	if err != nil {
		log.Error("Failed to give clue in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleRevealCard(client *Client, payload json.RawMessage) {
	var p messages.RevealCardPayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.RevealCard(p.SessionCode, p.CardIndex)
	if err != nil {
		log.Error("Failed to reveal card in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleEndTurn(client *Client, payload json.RawMessage) {
	var p messages.SessionPayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.EndTurn(p.SessionCode)
	if err != nil {
		log.Error("Failed to end turn in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleEndRound(client *Client, payload json.RawMessage) {
	var p messages.SessionPayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.EndRound(p.SessionCode)
	if err != nil {
		log.Error("Failed to end round in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleResetToLobby(client *Client, payload json.RawMessage) {
	var p messages.SessionPayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.ResetToLobby(p.SessionCode)
	if err != nil {
		log.Error("Failed to reset session %s to lobby: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

func (r *EventRouter) handleUpdatePlayerName(client *Client, payload json.RawMessage) {
	var p messages.UpdatePlayerNamePayload
	if !decode(payload, &p) {
		return
	}

	match, err := r.sessionManager.UpdatePlayerName(p.SessionCode, p.PlayerID, p.NewName)
	if err != nil {
		log.Error("Failed to update player name in session %s: %v", p.SessionCode, err)
		return
	}
	r.broadcastState(p.SessionCode, match)
}

// handleChatMessage relays chat to the session without touching match state.
func (r *EventRouter) handleChatMessage(client *Client, payload json.RawMessage) {
	var p messages.ChatMessagePayload
	if !decode(payload, &p) {
		return
	}

	event, err := messages.NewEvent(messages.EventTypeChatMessage, p.Message)
	if err != nil {
		log.Error("Failed to build chat-message event: %v", err)
		return
	}
	r.clientManager.Broadcast(p.SessionCode, event)
}
