package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gametypes "github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/messages"
	"github.com/cbodonnell/codeword/pkg/metrics"
	"github.com/cbodonnell/codeword/pkg/sessions"
	"github.com/cbodonnell/codeword/pkg/words"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *sessions.SessionManager) {
	t.Helper()

	sessionManager := sessions.NewSessionManager(sessions.NewSessionManagerOptions{
		WordSource: words.NewDefaultSource(),
		Collector:  metrics.NewCollector(metrics.NewCollectorOptions{Retention: time.Minute}),
		Retention:  time.Hour,
	})
	clientManager := NewClientManager()
	router := NewEventRouter(NewEventRouterOptions{
		SessionManager: sessionManager,
		ClientManager:  clientManager,
	})
	wsServer := NewWSServer(NewWSServerOptions{
		ClientManager: clientManager,
		Router:        router,
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		go wsServer.handleWSConnection(conn)
	}))
	t.Cleanup(server.Close)
	return server, sessionManager
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload interface{}) {
	t.Helper()
	event, err := messages.NewEvent(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(event))
}

// awaitEvent reads events until one of the wanted type arrives.
func awaitEvent(t *testing.T, conn *websocket.Conn, eventType string) *messages.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var event messages.Event
		require.NoError(t, conn.ReadJSON(&event), "waiting for %s", eventType)
		if event.Type == eventType {
			return &event
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, sessionCode, playerID, name string) {
	t.Helper()
	send(t, conn, messages.EventTypeJoin, &messages.JoinPayload{
		SessionCode: sessionCode,
		PlayerID:    playerID,
		PlayerName:  name,
	})
}

func TestRouter_JoinSendsStateAndPlayerJoined(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)

	join(t, conn, "ROOM1", "p1", "alice")

	stateEvent := awaitEvent(t, conn, messages.EventTypeGameState)
	var match gametypes.Match
	require.NoError(t, json.Unmarshal(stateEvent.Payload, &match))
	assert.Equal(t, "ROOM1", match.Code)
	require.Len(t, match.Players, 1)
	assert.Equal(t, "p1", match.HostID)

	joinedEvent := awaitEvent(t, conn, messages.EventTypePlayerJoined)
	var joined messages.PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(joinedEvent.Payload, &joined))
	require.NotNil(t, joined.Player)
	assert.Equal(t, "alice", joined.Player.Name)
	assert.False(t, joined.IsReconnect)
}

func TestRouter_ReconnectFlagged(t *testing.T) {
	server, _ := newTestServer(t)

	first := dial(t, server)
	join(t, first, "ROOM1", "p1", "alice")
	awaitEvent(t, first, messages.EventTypePlayerJoined)
	first.Close()

	second := dial(t, server)
	join(t, second, "ROOM1", "p1", "alice")

	joinedEvent := awaitEvent(t, second, messages.EventTypePlayerJoined)
	var joined messages.PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(joinedEvent.Payload, &joined))
	assert.True(t, joined.IsReconnect)
}

func TestRouter_MutationBroadcastsToSession(t *testing.T) {
	server, sessionManager := newTestServer(t)

	alice := dial(t, server)
	join(t, alice, "ROOM1", "p1", "alice")
	awaitEvent(t, alice, messages.EventTypePlayerJoined)

	bob := dial(t, server)
	join(t, bob, "ROOM1", "p2", "bob")
	awaitEvent(t, bob, messages.EventTypePlayerJoined)
	// alice sees bob arrive before any team change
	awaitEvent(t, alice, messages.EventTypePlayerJoined)

	send(t, bob, messages.EventTypeJoinTeam, &messages.JoinTeamPayload{
		SessionCode: "ROOM1",
		Team:        gametypes.TeamRed,
	})

	for _, conn := range []*websocket.Conn{alice, bob} {
		stateEvent := awaitEvent(t, conn, messages.EventTypeGameState)
		var match gametypes.Match
		require.NoError(t, json.Unmarshal(stateEvent.Payload, &match))
		i := match.FindPlayer("p2")
		require.GreaterOrEqual(t, i, 0)
		if match.Players[i].Team != gametypes.TeamRed {
			// join broadcasts can still be in flight, read the next snapshot
			stateEvent = awaitEvent(t, conn, messages.EventTypeGameState)
			require.NoError(t, json.Unmarshal(stateEvent.Payload, &match))
			i = match.FindPlayer("p2")
		}
		assert.Equal(t, gametypes.TeamRed, match.Players[i].Team)
	}

	match := sessionManager.GetMatch("ROOM1")
	require.NotNil(t, match)
	assert.Equal(t, gametypes.TeamRed, match.Players[match.FindPlayer("p2")].Team)
}

func TestRouter_StartGameValidationErrorGoesToInitiatorOnly(t *testing.T) {
	server, _ := newTestServer(t)

	conn := dial(t, server)
	join(t, conn, "ROOM1", "p1", "alice")
	awaitEvent(t, conn, messages.EventTypePlayerJoined)

	send(t, conn, messages.EventTypeStartGame, &messages.SessionPayload{SessionCode: "ROOM1"})

	errorEvent := awaitEvent(t, conn, messages.EventTypeError)
	var errPayload messages.ErrorPayload
	require.NoError(t, json.Unmarshal(errorEvent.Payload, &errPayload))
	assert.NotEmpty(t, errPayload.Message)
}

func TestRouter_ChatRelay(t *testing.T) {
	server, _ := newTestServer(t)

	alice := dial(t, server)
	join(t, alice, "ROOM1", "p1", "alice")
	awaitEvent(t, alice, messages.EventTypePlayerJoined)

	bob := dial(t, server)
	join(t, bob, "ROOM1", "p2", "bob")
	awaitEvent(t, bob, messages.EventTypePlayerJoined)

	send(t, alice, messages.EventTypeChatMessage, &messages.ChatMessagePayload{
		SessionCode: "ROOM1",
		Message:     json.RawMessage(`{"from":"alice","text":"hi"}`),
	})

	chatEvent := awaitEvent(t, bob, messages.EventTypeChatMessage)
	var relayed map[string]string
	require.NoError(t, json.Unmarshal(chatEvent.Payload, &relayed))
	assert.Equal(t, "hi", relayed["text"])
}

func TestRouter_UnknownEventIgnored(t *testing.T) {
	server, _ := newTestServer(t)

	conn := dial(t, server)
	join(t, conn, "ROOM1", "p1", "alice")
	awaitEvent(t, conn, messages.EventTypePlayerJoined)

	require.NoError(t, conn.WriteJSON(&messages.Event{Type: "no-such-event"}))

	// connection stays usable after an unhandled event
	send(t, conn, messages.EventTypeChatMessage, &messages.ChatMessagePayload{
		SessionCode: "ROOM1",
		Message:     json.RawMessage(`{"text":"still here"}`),
	})
	awaitEvent(t, conn, messages.EventTypeChatMessage)
}
